package services

import (
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/infrastructure/config"
	"testing"
)

func TestCreateDevicePinUniqueness(t *testing.T) {
	db := setupRelayTestDB(t)
	cfg := &config.Config{}
	svc := NewDeviceService(db, cfg)

	lab := models.Lab{Name: "实验室A301"}
	if err := db.Create(&lab).Error; err != nil {
		t.Fatalf("创建实验室失败: %v", err)
	}

	first := &models.Device{Name: "排气扇1号", PinNumber: 23, LabID: lab.ID, AllowedForFaculty: true}
	if err := svc.CreateDevice(first); err != nil {
		t.Fatalf("创建第一个设备失败: %v", err)
	}

	// 引脚号全局唯一
	dup := &models.Device{Name: "排气扇2号", PinNumber: 23, LabID: lab.ID, AllowedForFaculty: true}
	if err := svc.CreateDevice(dup); err == nil {
		t.Error("重复引脚号应该被拒绝")
	}
}

func TestCreateDeviceRequiresExistingLab(t *testing.T) {
	db := setupRelayTestDB(t)
	svc := NewDeviceService(db, &config.Config{})

	device := &models.Device{Name: "照明灯", PinNumber: 21, LabID: 99}
	if err := svc.CreateDevice(device); err == nil {
		t.Error("实验室不存在时应该拒绝创建设备")
	}
}

func TestGetDevicesByIDs(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	svc := NewDeviceService(db, &config.Config{})

	// 包含不存在的ID时只返回找到的设备
	devices, err := svc.GetDevicesByIDs([]uint{1, 3, 99})
	if err != nil {
		t.Fatalf("GetDevicesByIDs返回错误: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("应该解析出2台设备，实际%d台", len(devices))
	}
}

func TestUpdateDevicePinConflict(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	svc := NewDeviceService(db, &config.Config{})

	// 把设备1的引脚改成设备2已占用的引脚
	if _, err := svc.UpdateDevice(1, map[string]interface{}{"pin_number": 22}); err == nil {
		t.Error("引脚冲突的更新应该被拒绝")
	}

	// 改成空闲引脚则成功
	device, err := svc.UpdateDevice(1, map[string]interface{}{"pin_number": 25})
	if err != nil {
		t.Fatalf("更新到空闲引脚失败: %v", err)
	}
	if device.PinNumber != 25 {
		t.Errorf("引脚应该更新为25，实际为%d", device.PinNumber)
	}
}
