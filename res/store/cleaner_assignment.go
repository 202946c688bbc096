package store

import "context"

// CleanerAssignment is the derived cleaner-for-booking row the core only
// reads/writes as a side effect of booking deactivation (§3, I3).
type CleanerAssignment struct {
	UUID        string  `gorm:"primaryKey;size:50;unique"`
	EventUUID   string  `gorm:"size:50;not null;index:idx_assignment_event"`
	CleanerUUID string  `gorm:"size:50;not null;index:idx_assignment_cleaner"`
	Hours       float64 `gorm:"type:decimal(5,2);not null"`
	IsActive    bool    `gorm:"not null;default:true;index:idx_assignment_active"`
}

// CleanerAssignmentStore defines the cascade operation the Reconciler needs
// when a booking is deactivated (§4.2, I3).
type CleanerAssignmentStore interface {
	DeactivateForBookings(ctx context.Context, bookingUUIDs []string) error
}
