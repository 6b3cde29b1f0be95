package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/models"
)

func (d *Database) SaveProfile(ctx context.Context, profile *models.Profile) error {
	return d.with(ctx).Create(profile).Error
}

// FindProfileByDisplayID looks the client-chosen id up within one session only.
func (d *Database) FindProfileByDisplayID(ctx context.Context, sessionID, displayID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := d.with(ctx).
		Where("session_id = ? AND display_id = ?", sessionID, displayID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindProfileBySessionGUID is FindProfileByDisplayID keyed by the session's
// public id, for callers that have not resolved the session yet.
func (d *Database) FindProfileBySessionGUID(ctx context.Context, guid, displayID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := d.with(ctx).
		Joins("JOIN sessions ON sessions.id = profiles.session_id").
		Where("sessions.guid = ? AND profiles.display_id = ?", guid, displayID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (d *Database) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	return d.with(ctx).Delete(&models.Profile{}, "id = ?", id).Error
}

func (d *Database) ListProfilesBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := d.with(ctx).Where("session_id = ?", sessionID).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (d *Database) CountProfiles(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := d.with(ctx).Model(&models.Profile{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}
