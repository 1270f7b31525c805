package service

import "studiobook/internal/models"

// CheckConflict reports whether candidate overlaps any of existing, which the
// caller has already narrowed to the candidate's service and date.
func CheckConflict(candidate *models.Booking, existing []models.Booking) bool {
	return FindConflict(candidate, existing) != nil
}

// FindConflict returns the first booking in existing that overlaps candidate, or nil.
func FindConflict(candidate *models.Booking, existing []models.Booking) *models.Booking {
	for i := range existing {
		if candidate.OverlapsWith(&existing[i]) {
			return &existing[i]
		}
	}
	return nil
}
