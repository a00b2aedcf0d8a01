package services

import (
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/infrastructure/config"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := setupRelayTestDB(t)
	svc := NewUserService(db, &config.Config{})

	user, err := svc.Register("张三", "ZhangSan@iotlab.local", "secret123", "20230001", models.RoleStudent)
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	// 邮箱统一小写存储
	if user.Email != "zhangsan@iotlab.local" {
		t.Errorf("邮箱应该小写化，实际为: %s", user.Email)
	}
	// 密码不能明文落库
	if user.Password == "secret123" {
		t.Error("密码不应明文存储")
	}

	// 登录校验，邮箱大小写不敏感
	if _, err := svc.Authenticate("zhangsan@IOTLAB.local", "secret123"); err != nil {
		t.Errorf("正确密码应该通过校验: %v", err)
	}
	if _, err := svc.Authenticate("zhangsan@iotlab.local", "wrong"); err == nil {
		t.Error("错误密码应该被拒绝")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupRelayTestDB(t)
	svc := NewUserService(db, &config.Config{})

	if _, err := svc.Register("张三", "a@iotlab.local", "x", "", models.RoleStudent); err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if _, err := svc.Register("李四", "A@iotlab.local", "x", "", models.RoleStudent); err == nil {
		t.Error("重复邮箱应该被拒绝")
	}
}

func TestRegisterInvalidRole(t *testing.T) {
	db := setupRelayTestDB(t)
	svc := NewUserService(db, &config.Config{})

	if _, err := svc.Register("王五", "w@iotlab.local", "x", "", models.UserRole("SUPERUSER")); err == nil {
		t.Error("非法角色应该被拒绝")
	}
}
