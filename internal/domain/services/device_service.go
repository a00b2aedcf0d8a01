package services

import (
	"errors"
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/infrastructure/config"

	"gorm.io/gorm"
)

// InterfaceDeviceService 定义设备服务接口
type InterfaceDeviceService interface {
	GetAllDevices() ([]models.Device, error)
	GetDevicesByLab(labID uint) ([]models.Device, error)
	GetDeviceByID(id uint) (*models.Device, error)
	GetDeviceByPin(pin int) (*models.Device, error)
	GetDevicesByIDs(ids []uint) ([]models.Device, error)
	CreateDevice(device *models.Device) error
	UpdateDevice(id uint, updates map[string]interface{}) (*models.Device, error)
	DeleteDevice(id uint) error
}

// DeviceService 提供设备相关的服务
type DeviceService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewDeviceService 创建一个新的设备服务
func NewDeviceService(db *gorm.DB, cfg *config.Config) InterfaceDeviceService {
	return &DeviceService{
		DB:     db,
		Config: cfg,
	}
}

// 1. GetAllDevices 获取所有设备列表
func (s *DeviceService) GetAllDevices() ([]models.Device, error) {
	var devices []models.Device
	if err := s.DB.Preload("Lab").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// 1.2 GetDevicesByLab 根据实验室获取设备列表
func (s *DeviceService) GetDevicesByLab(labID uint) ([]models.Device, error) {
	var devices []models.Device
	if err := s.DB.Where("lab_id = ?", labID).Preload("Lab").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// 2. GetDeviceByID 根据ID获取设备
func (s *DeviceService) GetDeviceByID(id uint) (*models.Device, error) {
	var device models.Device
	if err := s.DB.Preload("Lab").First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("设备不存在")
		}
		return nil, err
	}
	return &device, nil
}

// 2.2 GetDeviceByPin 根据引脚编号获取设备
func (s *DeviceService) GetDeviceByPin(pin int) (*models.Device, error) {
	var device models.Device
	if err := s.DB.Where("pin_number = ?", pin).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("设备不存在")
		}
		return nil, err
	}
	return &device, nil
}

// 2.3 GetDevicesByIDs 根据ID集合批量获取设备，结果按主键升序
func (s *DeviceService) GetDevicesByIDs(ids []uint) ([]models.Device, error) {
	var devices []models.Device
	if err := s.DB.Where("id IN ?", ids).Order("id ASC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// 3. CreateDevice 创建新设备
func (s *DeviceService) CreateDevice(device *models.Device) error {
	// 验证所属实验室存在
	var lab models.Lab
	if err := s.DB.First(&lab, device.LabID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("实验室不存在")
		}
		return err
	}

	// 验证引脚编号唯一性
	var count int64
	if err := s.DB.Model(&models.Device{}).Where("pin_number = ?", device.PinNumber).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("引脚编号已被占用")
	}

	return s.DB.Create(device).Error
}

// 4. UpdateDevice 更新设备信息
func (s *DeviceService) UpdateDevice(id uint, updates map[string]interface{}) (*models.Device, error) {
	device, err := s.GetDeviceByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新引脚编号，需要检查唯一性
	if pin, ok := updates["pin_number"].(int); ok && pin != device.PinNumber {
		var count int64
		if err := s.DB.Model(&models.Device{}).Where("pin_number = ? AND id != ?", pin, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("引脚编号已被占用")
		}
	}

	// 如果更新所属实验室，需要检查实验室存在
	if labID, ok := updates["lab_id"].(uint); ok {
		var lab models.Lab
		if err := s.DB.First(&lab, labID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("实验室不存在")
			}
			return nil, err
		}
	}

	if err := s.DB.Model(device).Updates(updates).Error; err != nil {
		return nil, err
	}

	// 重新获取更新后的设备信息
	return s.GetDeviceByID(id)
}

// 5. DeleteDevice 删除设备
func (s *DeviceService) DeleteDevice(id uint) error {
	device, err := s.GetDeviceByID(id)
	if err != nil {
		return err
	}

	return s.DB.Delete(device).Error
}
