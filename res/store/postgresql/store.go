package postgresql

import (
	"fmt"
	"runtime"

	"rentalsync/res/store"

	sqlCommenter "github.com/gouyelliot/gorm-sqlcommenter-plugin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type storeImpl struct {
	db *gorm.DB

	listingStore           *listingStore
	feedStore              *feedStore
	bookingStore           *bookingStore
	changeRecordStore      *changeRecordStore
	cleanerAssignmentStore *cleanerAssignmentStore
	syncSessionStore       *syncSessionStore
	logEntryStore          *logEntryStore
}

func (sImpl *storeImpl) Listings() store.ListingStore                     { return sImpl.listingStore }
func (sImpl *storeImpl) Feeds() store.FeedStore                           { return sImpl.feedStore }
func (sImpl *storeImpl) Bookings() store.BookingStore                     { return sImpl.bookingStore }
func (sImpl *storeImpl) ChangeRecords() store.ChangeRecordStore           { return sImpl.changeRecordStore }
func (sImpl *storeImpl) CleanerAssignments() store.CleanerAssignmentStore { return sImpl.cleanerAssignmentStore }
func (sImpl *storeImpl) SyncSessions() store.SyncSessionStore             { return sImpl.syncSessionStore }
func (sImpl *storeImpl) LogEntries() store.LogEntryStore                  { return sImpl.logEntryStore }

func (sImpl *storeImpl) GetDB() interface{} {
	return sImpl.db
}

func Connect(connectionUrl string) (*storeImpl, error) {
	db, err := gorm.Open(postgres.Open(connectionUrl), &gorm.Config{TranslateError: true, PrepareStmt: false})
	if err != nil {
		return nil, err
	}

	err = db.Use(sqlCommenter.New())
	if err != nil {
		return nil, err
	}

	err = decorateDBOperationsWithAdditionalInfo(db)
	if err != nil {
		return nil, err
	}

	// Auto-migrate all tables
	// err = db.AutoMigrate(
	// 	&store.Listing{},
	// 	&store.Feed{},
	// 	&store.Booking{},
	// 	&store.ChangeRecord{},
	// 	&store.CleanerAssignment{},
	// 	&store.SyncSession{},
	// 	&store.LogEntry{},
	// )
	// if err != nil {
	// 	return nil, fmt.Errorf("failed to auto-migrate tables: %w", err)
	// }

	s := &storeImpl{db: db}

	s.listingStore = NewListingStore(s)
	s.feedStore = NewFeedStore(s)
	s.bookingStore = NewBookingStore(s)
	s.changeRecordStore = NewChangeRecordStore(s)
	s.cleanerAssignmentStore = NewCleanerAssignmentStore(s)
	s.syncSessionStore = NewSyncSessionStore(s)
	s.logEntryStore = NewLogEntryStore(s)

	return s, nil
}

// COMMON UTILITIES

func identifyCallee(stackDepth int) string {
	function, _, line, ok := runtime.Caller(stackDepth)
	if !ok {
		return "<missing-runtime-info>"
	}
	return fmt.Sprintf("%s:%d", runtime.FuncForPC(function).Name(), line)
}

func annotateWithInfoHook(db *gorm.DB) {
	info := identifyCallee(4) // Skip the internal gorm calls & the 2 local setup calls
	db.Clauses(sqlCommenter.NewTag("action", info))
}

func decorateDBOperationsWithAdditionalInfo(db *gorm.DB) error {
	return db.Callback().Query().Before("gorm:query").Register("store::annotate_with_info", annotateWithInfoHook)
}
