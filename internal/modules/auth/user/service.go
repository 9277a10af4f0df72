package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jdforge/core/internal/models"
	"github.com/jdforge/core/internal/pkg/formstate"
	sessionpkg "github.com/jdforge/core/internal/pkg/session"
	"github.com/jdforge/core/internal/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db         *gorm.DB
	domains    *validation.DomainAllowList
	forms      *formstate.Store
	sessionTTL time.Duration
	logger     *zap.Logger

	registerChecks validation.Pipeline[*RegisterDTO]
	profileChecks  validation.Pipeline[*profileChange]
	passwordChecks validation.Pipeline[*passwordChange]
}

type profileChange struct {
	userID string
	dto    *UpdateProfileDTO
}

type passwordChange struct {
	user *models.UserModel
	dto  *ChangePasswordDTO
}

func NewService(db *gorm.DB, domains *validation.DomainAllowList, forms *formstate.Store, sessionTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		db:         db,
		domains:    domains,
		forms:      forms,
		sessionTTL: sessionTTL,
		logger:     logger.Named("UserService"),
	}

	s.registerChecks = validation.Pipeline[*RegisterDTO]{
		{Name: "password_match", Fn: func(_ context.Context, d *RegisterDTO) (string, error) {
			if d.Password1 != d.Password2 {
				return msgPasswordMismatch, nil
			}
			return "", nil
		}},
		{Name: "username_unique", Fn: func(ctx context.Context, d *RegisterDTO) (string, error) {
			return s.taken(ctx, "username", d.Username, "", msgUsernameTaken)
		}},
		{Name: "email_unique", Fn: func(ctx context.Context, d *RegisterDTO) (string, error) {
			return s.taken(ctx, "email", d.Email, "", msgEmailTaken)
		}},
		{Name: "email_domain", Fn: func(_ context.Context, d *RegisterDTO) (string, error) {
			return s.checkDomain(d.Email), nil
		}},
		{Name: "security_question", Fn: func(_ context.Context, d *RegisterDTO) (string, error) {
			if _, ok := models.LookupSecurityQuestion(d.SecurityQuestion); !ok {
				return msgChooseQuestion, nil
			}
			if strings.TrimSpace(d.SecurityAnswer) == "" {
				return msgProvideAnswer, nil
			}
			return "", nil
		}},
	}

	s.profileChecks = validation.Pipeline[*profileChange]{
		{Name: "username_unique", Fn: func(ctx context.Context, p *profileChange) (string, error) {
			return s.taken(ctx, "username", p.dto.Username, p.userID, msgUsernameTaken)
		}},
		{Name: "email_unique", Fn: func(ctx context.Context, p *profileChange) (string, error) {
			return s.taken(ctx, "email", p.dto.Email, p.userID, msgEmailTaken)
		}},
		{Name: "email_domain", Fn: func(_ context.Context, p *profileChange) (string, error) {
			return s.checkDomain(p.dto.Email), nil
		}},
	}

	s.passwordChecks = validation.Pipeline[*passwordChange]{
		{Name: "current_password", Fn: func(_ context.Context, p *passwordChange) (string, error) {
			if bcrypt.CompareHashAndPassword([]byte(p.user.Password), []byte(p.dto.OldPassword)) != nil {
				return msgWrongOldPassword, nil
			}
			return "", nil
		}},
		{Name: "security_answer", Fn: func(_ context.Context, p *passwordChange) (string, error) {
			if p.user.Profile == nil {
				return msgProfileMissing, nil
			}
			if !strings.EqualFold(strings.TrimSpace(p.dto.SecurityAnswer), strings.TrimSpace(p.user.Profile.SecurityAnswer)) {
				return msgWrongAnswer, nil
			}
			return "", nil
		}},
		{Name: "new_password_match", Fn: func(_ context.Context, p *passwordChange) (string, error) {
			if p.dto.NewPassword1 != p.dto.NewPassword2 {
				return msgNewPasswordMismatch, nil
			}
			return "", nil
		}},
		{Name: "new_password_differs", Fn: func(_ context.Context, p *passwordChange) (string, error) {
			if bcrypt.CompareHashAndPassword([]byte(p.user.Password), []byte(p.dto.NewPassword1)) == nil {
				return msgPasswordUnchanged, nil
			}
			return "", nil
		}},
	}

	s.logger.Debug("validation pipelines ready",
		zap.Strings("register", s.registerChecks.Names()),
		zap.Strings("profile", s.profileChecks.Names()),
		zap.Strings("password", s.passwordChecks.Names()))
	return s
}

func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

// taken reports msg when another user already holds value in column.
// Soft-deleted rows count since they still occupy the unique index.
func (s *Service) taken(ctx context.Context, column, value, excludeID, msg string) (string, error) {
	query := s.db.WithContext(ctx).Unscoped().
		Model(&models.UserModel{}).
		Where(column+" = ?", strings.TrimSpace(value))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return msg, nil
	}
	return "", nil
}

func (s *Service) checkDomain(email string) string {
	if s.domains == nil || s.domains.Allows(email) {
		return ""
	}
	return msgDomainNotAllowed
}

// Register creates the user and its profile together, or nothing at all.
func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (*models.UserModel, error) {
	dto.Username = strings.TrimSpace(dto.Username)
	dto.Email = normalizeEmail(dto.Email)
	dto.SecurityQuestion = strings.TrimSpace(dto.SecurityQuestion)

	if err := s.registerChecks.Run(ctx, dto); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := models.UserModel{Username: dto.Username, Email: dto.Email, Password: string(hash)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		profile := models.UserProfile{
			UserID:           u.ID,
			SecurityQuestion: dto.SecurityQuestion,
			SecurityAnswer:   dto.SecurityAnswer,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		u.Profile = &profile
		return nil
	})
	if err != nil {
		return nil, duplicateRejection(err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return &u, nil
}

func (s *Service) Login(ctx context.Context, username, password, ip, ua string) (string, *models.UserModel, error) {
	var u models.UserModel
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, errInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, errInvalidCredentials
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	}).Error; err != nil {
		s.logger.Warn("failed to record login", zap.String("user_id", u.ID), zap.Error(err))
	}
	u.LastLoginTime = &now
	u.LastLoginIP = ip

	token, _, err := sessionpkg.Issue(s.db.WithContext(ctx), u.ID, ip, ua, s.sessionTTL)
	if err != nil {
		return "", nil, fmt.Errorf("issue session: %w", err)
	}
	return token, &u, nil
}

// Logout revokes sessionID and forgets the form values remembered for it.
func (s *Service) Logout(ctx context.Context, userID, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := sessionpkg.Revoke(s.db.WithContext(ctx), userID, sessionID); err != nil && !errors.Is(err, sessionpkg.ErrNotFound) {
		return err
	}
	if s.forms != nil {
		if err := s.forms.Clear(ctx, sessionID); err != nil {
			s.logger.Warn("failed to clear form state", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	err := s.db.WithContext(ctx).Preload("Profile").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile applies both fields in one statement once every check passes.
func (s *Service) UpdateProfile(ctx context.Context, userID string, dto *UpdateProfileDTO) (*models.UserModel, error) {
	dto.Username = strings.TrimSpace(dto.Username)
	dto.Email = normalizeEmail(dto.Email)

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.profileChecks.Run(ctx, &profileChange{userID: userID, dto: dto}); err != nil {
		return nil, err
	}

	// Scoped by id so gorm does not upsert the preloaded profile.
	if err := s.db.WithContext(ctx).Model(&models.UserModel{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"username": dto.Username,
		"email":    dto.Email,
	}).Error; err != nil {
		return nil, duplicateRejection(err)
	}
	u.Username = dto.Username
	u.Email = dto.Email
	return u, nil
}

// ChangePassword replaces the password hash and signs out every other session.
// keepSessionID stays valid.
func (s *Service) ChangePassword(ctx context.Context, userID, keepSessionID string, dto *ChangePasswordDTO) error {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.passwordChecks.Run(ctx, &passwordChange{user: u, dto: dto}); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword1), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserModel{}).Where("id = ?", u.ID).Update("password", string(hash)).Error; err != nil {
			return err
		}
		return sessionpkg.RevokeAllExcept(tx, u.ID, keepSessionID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", u.ID))
	return nil
}

func (s *Service) ListSessions(ctx context.Context, userID string) ([]models.UserSession, error) {
	return sessionpkg.ListActive(s.db.WithContext(ctx), userID)
}

func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	return sessionpkg.Revoke(s.db.WithContext(ctx), userID, sessionID)
}
