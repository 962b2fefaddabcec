package app

import (
	"errors"

	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/whatsapp"
	"github.com/bjo163/wagateway/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// checkDevice makes sure the session mirror row exists.
func (a *Application) checkDevice() {
	phone := common.IfEmptyStr(whatsapp.SanitizeNumber(a.appConfig.WhatsApp.PhoneNumber), common.NA)

	var device domain.WhatsAppDevice
	err := a.gormDB.Order("created_at ASC").First(&device).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.WhatsAppDevice{
			Phone:  phone,
			Status: whatsapp.StateIdle.String(),
		}).Error; err != nil {
			zap.L().Error("failed to create whatsapp device record", zap.Error(err))
		} else {
			zap.L().Info("initialized whatsapp device record", zap.String("phone", phone))
		}
		return
	case err != nil:
		zap.L().Error("failed to query whatsapp device record", zap.Error(err))
		return
	}

	if device.Phone != phone {
		if err := a.gormDB.Model(&device).Update("phone", phone).Error; err != nil {
			zap.L().Error("failed to update whatsapp device phone", zap.Error(err))
		}
	}
}
