package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"gorm.io/gorm"
)

func (r *GraphRepository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := UserModel{Email: strings.ToLower(strings.TrimSpace(value.Email)), PasswordHash: value.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, translate(err)
	}
	return toUser(m), nil
}

func (r *GraphRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error
	return count, translate(err)
}

func (r *GraphRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var m UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return domain.User{}, translateLookup(err, "user", email)
	}
	return toUser(m), nil
}

func (r *GraphRepository) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.User{}, translateLookup(err, "user", id)
	}
	return toUser(m), nil
}

// AnonymizeUser scrubs identity fields and revokes every API token. Rows the
// user created elsewhere are left untouched.
func (r *GraphRepository) AnonymizeUser(ctx context.Context, id uint, scrubbedEmail string) (domain.User, error) {
	var out UserModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, id).Error; err != nil {
			return err
		}
		if out.AnonymizedAt == nil {
			now := time.Now()
			if err := tx.Model(&out).Updates(map[string]any{
				"email":         scrubbedEmail,
				"password_hash": "",
				"anonymized_at": now,
			}).Error; err != nil {
				return err
			}
		}
		return tx.Where("user_id = ?", id).Delete(&APITokenModel{}).Error
	})
	if err != nil {
		return domain.User{}, translateLookup(err, "user", id)
	}
	return r.GetUserByID(ctx, id)
}

func (r *GraphRepository) CreateAPIToken(ctx context.Context, value domain.APIToken) (domain.APIToken, error) {
	m := APITokenModel{UserID: value.UserID, Name: value.Name, TokenHash: value.TokenHash, ExpiresAt: value.ExpiresAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.APIToken{}, translate(err)
	}
	return toAPIToken(m), nil
}

func (r *GraphRepository) GetAPITokenByTokenHash(ctx context.Context, tokenHash string) (domain.APIToken, error) {
	var m APITokenModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		return domain.APIToken{}, translateLookup(err, "api token", "for hash")
	}
	return toAPIToken(m), nil
}

func (r *GraphRepository) DeleteAPITokenByTokenHash(ctx context.Context, tokenHash string) error {
	return translate(r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&APITokenModel{}).Error)
}

func toUser(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		AnonymizedAt: m.AnonymizedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toAPIToken(m APITokenModel) domain.APIToken {
	return domain.APIToken{ID: m.ID, UserID: m.UserID, Name: m.Name, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}
}
