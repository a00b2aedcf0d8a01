package services

import (
	"errors"
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/infrastructure/config"

	"gorm.io/gorm"
)

// InterfaceLabService 定义实验室服务接口
type InterfaceLabService interface {
	GetAllLabs() ([]models.Lab, error)
	GetLabByID(id uint) (*models.Lab, error)
	CreateLab(lab *models.Lab) error
	UpdateLab(id uint, updates map[string]interface{}) (*models.Lab, error)
	DeleteLab(id uint) error
	GetLabDevices(labID uint) ([]models.Device, error)
}

// LabService 提供实验室相关的服务
type LabService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewLabService 创建一个新的实验室服务
func NewLabService(db *gorm.DB, cfg *config.Config) InterfaceLabService {
	return &LabService{
		DB:     db,
		Config: cfg,
	}
}

// 1. GetAllLabs 获取所有实验室列表
func (s *LabService) GetAllLabs() ([]models.Lab, error) {
	var labs []models.Lab
	if err := s.DB.Preload("Devices").Find(&labs).Error; err != nil {
		return nil, err
	}
	return labs, nil
}

// 2. GetLabByID 根据ID获取实验室
func (s *LabService) GetLabByID(id uint) (*models.Lab, error) {
	var lab models.Lab
	if err := s.DB.Preload("Devices").First(&lab, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("实验室不存在")
		}
		return nil, err
	}
	return &lab, nil
}

// 3. CreateLab 创建新实验室
func (s *LabService) CreateLab(lab *models.Lab) error {
	// 验证名称唯一性
	var count int64
	if err := s.DB.Model(&models.Lab{}).Where("name = ?", lab.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("实验室已存在")
	}

	return s.DB.Create(lab).Error
}

// 4. UpdateLab 更新实验室信息
func (s *LabService) UpdateLab(id uint, updates map[string]interface{}) (*models.Lab, error) {
	lab, err := s.GetLabByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新名称，需要检查唯一性
	if name, ok := updates["name"].(string); ok && name != lab.Name {
		var count int64
		if err := s.DB.Model(&models.Lab{}).Where("name = ? AND id != ?", name, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("实验室名称已存在")
		}
	}

	if err := s.DB.Model(lab).Updates(updates).Error; err != nil {
		return nil, err
	}

	// 重新获取更新后的实验室信息
	return s.GetLabByID(id)
}

// 5. DeleteLab 删除实验室
func (s *LabService) DeleteLab(id uint) error {
	lab, err := s.GetLabByID(id)
	if err != nil {
		return err
	}

	// 实验室下还有设备时不允许删除
	var count int64
	if err := s.DB.Model(&models.Device{}).Where("lab_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("实验室下仍有设备，无法删除")
	}

	return s.DB.Delete(lab).Error
}

// 6. GetLabDevices 获取实验室下的设备列表
func (s *LabService) GetLabDevices(labID uint) ([]models.Device, error) {
	// 检查实验室是否存在
	if _, err := s.GetLabByID(labID); err != nil {
		return nil, err
	}

	var devices []models.Device
	if err := s.DB.Where("lab_id = ?", labID).Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}
