package service_test

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type UserServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	svc    service.UserService
	tenant model.Tenant
}

func (s *UserServiceTestSuite) SetupTest() {
	db := newTestDB(s.T())
	s.ctx = context.Background()
	s.svc = service.NewUserService(repository.NewUserRepository(db))

	s.tenant = model.Tenant{Name: "Golden Fork", Slug: "golden-fork-" + uuid.NewString()[:8], Active: true}
	s.Require().NoError(db.Create(&s.tenant).Error)
}

func (s *UserServiceTestSuite) TestCreateAndLogin() {
	created, err := s.svc.CreateUser(s.ctx, s.tenant.ID, service.CreateUserRequest{
		Username: "chef",
		Email:    "chef@example.com",
		Password: "secret123",
		Role:     model.RoleRestaurantAdmin,
	})
	s.Require().NoError(err)
	s.Equal(model.RoleRestaurantAdmin, created.Role)
	s.Equal(s.tenant.ID, created.TenantID)
	s.True(created.Active)

	token, err := s.svc.Login(s.ctx, service.LoginUserRequest{
		Email:    "chef@example.com",
		Password: "secret123",
	})
	s.Require().NoError(err)
	s.NotEmpty(token.Token)
}

func (s *UserServiceTestSuite) TestLoginWrongPassword() {
	_, err := s.svc.CreateUser(s.ctx, s.tenant.ID, service.CreateUserRequest{
		Username: "chef2",
		Email:    "chef2@example.com",
		Password: "secret123",
		Role:     model.RoleBranchAdmin,
	})
	s.Require().NoError(err)

	_, err = s.svc.Login(s.ctx, service.LoginUserRequest{
		Email:    "chef2@example.com",
		Password: "wrong",
	})
	s.True(apperror.IsKind(err, apperror.KindUnauthorized))
}

func (s *UserServiceTestSuite) TestLoginUnknownEmail() {
	_, err := s.svc.Login(s.ctx, service.LoginUserRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	s.True(apperror.IsKind(err, apperror.KindUnauthorized))
}

func (s *UserServiceTestSuite) TestCreateUserRejectsUnknownRole() {
	_, err := s.svc.CreateUser(s.ctx, s.tenant.ID, service.CreateUserRequest{
		Username: "x",
		Email:    "x@example.com",
		Password: "secret123",
		Role:     "sous-chef",
	})
	s.True(apperror.IsKind(err, apperror.KindValidation))
}

func (s *UserServiceTestSuite) TestUpdateDeactivatesUser() {
	created, err := s.svc.CreateUser(s.ctx, s.tenant.ID, service.CreateUserRequest{
		Username: "temp",
		Email:    "temp@example.com",
		Password: "secret123",
		Role:     model.RoleBranchAdmin,
	})
	s.Require().NoError(err)

	inactive := false
	updated, err := s.svc.UpdateUser(s.ctx, s.tenant.ID, created.ID, service.UpdateUserRequest{Active: &inactive})
	s.Require().NoError(err)
	s.False(updated.Active)

	_, err = s.svc.Login(s.ctx, service.LoginUserRequest{
		Email:    "temp@example.com",
		Password: "secret123",
	})
	s.True(apperror.IsKind(err, apperror.KindUnauthorized))
}

func (s *UserServiceTestSuite) TestTenantScoping() {
	created, err := s.svc.CreateUser(s.ctx, s.tenant.ID, service.CreateUserRequest{
		Username: "scoped",
		Email:    "scoped@example.com",
		Password: "secret123",
		Role:     model.RoleBranchAdmin,
	})
	s.Require().NoError(err)

	_, err = s.svc.GetUserByID(s.ctx, uuid.New(), created.ID)
	s.True(apperror.IsKind(err, apperror.KindNotFound))
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
