package common

import (
	"context"
	"errors"
	"strconv"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/repository"
	"github.com/questx-lab/prizeengine/pkg/xcache"
	"gorm.io/gorm"
)

// RedemptionSwitch is the global kill switch of redemption. Reads go through
// the cache, writes invalidate it.
type RedemptionSwitch struct {
	settingRepo repository.SystemSettingRepository
	cache       xcache.Cache[bool]
}

func NewRedemptionSwitch(
	settingRepo repository.SystemSettingRepository,
	cache xcache.Cache[bool],
) *RedemptionSwitch {
	return &RedemptionSwitch{settingRepo: settingRepo, cache: cache}
}

// Enabled returns true if the switch was never written.
func (s *RedemptionSwitch) Enabled(ctx context.Context) (bool, error) {
	return s.cache.Get(ctx, entity.SettingRedemptionEnabled, func(ctx context.Context) (bool, error) {
		setting, err := s.settingRepo.Get(ctx, entity.SettingRedemptionEnabled)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return true, nil
			}

			return false, err
		}

		return strconv.ParseBool(setting.Value)
	})
}

func (s *RedemptionSwitch) Set(ctx context.Context, enabled bool) error {
	err := s.settingRepo.Upsert(ctx, &entity.SystemSetting{
		Key:   entity.SettingRedemptionEnabled,
		Value: strconv.FormatBool(enabled),
	})
	if err != nil {
		return err
	}

	return s.cache.Invalidate(ctx, entity.SettingRedemptionEnabled)
}
