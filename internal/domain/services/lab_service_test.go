package services

import (
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/infrastructure/config"
	"testing"
)

func TestCreateLabNameUniqueness(t *testing.T) {
	db := setupRelayTestDB(t)
	svc := NewLabService(db, &config.Config{})

	if err := svc.CreateLab(&models.Lab{Name: "实验室A301"}); err != nil {
		t.Fatalf("创建实验室失败: %v", err)
	}

	if err := svc.CreateLab(&models.Lab{Name: "实验室A301"}); err == nil {
		t.Error("重复名称应该被拒绝")
	}
}

func TestDeleteLabWithDevicesBlocked(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	svc := NewLabService(db, &config.Config{})

	// 实验室1下有设备，删除被拒绝
	if err := svc.DeleteLab(1); err == nil {
		t.Error("实验室下有设备时删除应该被拒绝")
	}

	// 清空设备后可以删除
	if err := db.Where("lab_id = ?", 1).Delete(&models.Device{}).Error; err != nil {
		t.Fatalf("清理设备失败: %v", err)
	}
	if err := svc.DeleteLab(1); err != nil {
		t.Errorf("空实验室删除失败: %v", err)
	}
}

func TestGetLabDevices(t *testing.T) {
	db := setupRelayTestDB(t)
	seedRelayFixtures(t, db)
	svc := NewLabService(db, &config.Config{})

	devices, err := svc.GetLabDevices(1)
	if err != nil {
		t.Fatalf("GetLabDevices返回错误: %v", err)
	}
	if len(devices) != 3 {
		t.Errorf("实验室1应该有3台设备，实际%d台", len(devices))
	}

	// 不存在的实验室
	if _, err := svc.GetLabDevices(99); err == nil {
		t.Error("不存在的实验室应该返回错误")
	}
}
