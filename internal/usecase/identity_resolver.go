package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"github.com/photomark/pricing-service/internal/infrastructure/provider/dodo"
	"go.uber.org/zap"
)

// accountIDKeys are the metadata / query-param keys an account id may hide
// under, checked in order.
var accountIDKeys = [...]string{"user_uid", "userUid", "uid", "userId", "user-id"}

// referenceKeys extend accountIDKeys with the generic reference fields
// providers echo back from checkout links.
var referenceKeys = [...]string{
	"client_reference_id", "reference_id", "external_id", "order_id",
	"user_uid", "userUid", "uid", "userId", "user-id",
}

// Facts is everything about a payment's subject that one event yielded.
// Fields are best-effort; an empty field means the event did not carry it.
type Facts struct {
	AccountID      string
	Email          string
	Plan           string
	SubscriptionID string
	CustomerID     string
}

// IdentityResolver maps a webhook envelope to an internal account id using
// the documented fallback chain, and maintains the advisory fact cache that
// lets sparse later events inherit identity from fuller earlier ones.
type IdentityResolver struct {
	accounts domainRepo.AccountRepository
	blobs    domainRepo.BlobStore
	logger   *zap.Logger
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(accounts domainRepo.AccountRepository, blobs domainRepo.BlobStore, logger *zap.Logger) *IdentityResolver {
	return &IdentityResolver{
		accounts: accounts,
		blobs:    blobs,
		logger:   logger,
	}
}

// Resolve extracts identity facts from the envelope without touching any
// store. The account id chain is: query params → metadata → direct
// reference fields on the event → bounded deep scan → nothing.
func (r *IdentityResolver) Resolve(ctx context.Context, env *dodo.Envelope) Facts {
	f := Facts{
		Email:          dodo.FirstEmail(env.Raw),
		SubscriptionID: subscriptionIDOf(env),
		CustomerID:     customerIDOf(env),
		Plan:           dodo.StringField(env.QueryParams, "plan"),
	}
	if f.Plan == "" {
		f.Plan = dodo.StringField(env.Metadata, "plan")
	}

	f.AccountID = dodo.StringField(env.QueryParams, accountIDKeys[:]...)
	if f.AccountID == "" {
		f.AccountID = dodo.StringField(env.Metadata, accountIDKeys[:]...)
	}
	if f.AccountID == "" {
		f.AccountID = dodo.StringField(env.Event, referenceKeys[:]...)
	}
	if f.AccountID == "" {
		f.AccountID = dodo.DeepFindString(env.Raw, referenceKeys[:]...)
	}
	return f
}

// ResolveAccount finishes the chain with the store-backed fallbacks: the
// fact cache keyed by subscription, customer or email, then an account
// lookup by billing email. It mutates f in place and returns whether an
// account id was found.
func (r *IdentityResolver) ResolveAccount(ctx context.Context, f *Facts) bool {
	if f.AccountID != "" {
		return true
	}

	r.RecoverFacts(ctx, f)
	if f.AccountID != "" {
		return true
	}

	if f.Email != "" {
		account, err := r.accounts.GetByEmail(ctx, f.Email)
		if err != nil {
			r.logger.Warn("Account lookup by email failed",
				zap.String("email", f.Email),
				zap.Error(err))
		} else if account != nil {
			f.AccountID = account.AccountID
			r.logger.Info("Resolved account by billing email",
				zap.String("account_id", f.AccountID))
			return true
		}
	}
	return false
}

func subscriptionIDOf(env *dodo.Envelope) string {
	if id := dodo.StringField(env.Event, "subscription_id", "subscriptionId"); id != "" {
		return id
	}
	if sub, ok := env.Event["subscription"].(map[string]interface{}); ok {
		if id := dodo.StringField(sub, "subscription_id", "id"); id != "" {
			return id
		}
	}
	return dodo.DeepFindString(env.Raw, "subscription_id", "subscriptionId")
}

func customerIDOf(env *dodo.Envelope) string {
	if c, ok := env.Event["customer"].(map[string]interface{}); ok {
		if id := dodo.StringField(c, "customer_id", "id"); id != "" {
			return id
		}
	}
	return dodo.StringField(env.Event, "customer_id", "customerId")
}

func subscriptionCacheKey(id string) string {
	return fmt.Sprintf("pricing/cache/subscriptions/%s.json", id)
}

func customerCacheKey(id string) string {
	return fmt.Sprintf("pricing/cache/customers/%s.json", id)
}

func emailCacheKey(email string) string {
	return fmt.Sprintf("pricing/cache/emails/%s.json", strings.ToLower(email))
}

// CacheFacts records whatever was learned under every applicable cache key.
// Writes are advisory: failures are logged and swallowed.
func (r *IdentityResolver) CacheFacts(ctx context.Context, f Facts) {
	if f.AccountID == "" && f.Plan == "" && f.Email == "" {
		return
	}

	entry := map[string]interface{}{
		"updatedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if f.AccountID != "" {
		entry["account_id"] = f.AccountID
	}
	if f.Plan != "" {
		entry["plan"] = f.Plan
	}
	if f.Email != "" {
		entry["email"] = f.Email
	}

	for _, key := range r.cacheKeys(f) {
		if err := r.blobs.WriteJSON(ctx, key, entry); err != nil {
			r.logger.Warn("Fact cache write failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

// RecoverFacts fills missing account id / plan / email from cached entries
// written by earlier, fuller events. Read failures are treated as misses.
func (r *IdentityResolver) RecoverFacts(ctx context.Context, f *Facts) {
	for _, key := range r.cacheKeys(*f) {
		if f.AccountID != "" && f.Plan != "" {
			return
		}
		entry, err := r.blobs.ReadJSON(ctx, key)
		if err != nil {
			r.logger.Warn("Fact cache read failed",
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		if entry == nil {
			continue
		}
		if f.AccountID == "" {
			if id, ok := entry["account_id"].(string); ok && id != "" {
				f.AccountID = id
				r.logger.Info("Recovered account id from fact cache",
					zap.String("key", key))
			}
		}
		if f.Plan == "" {
			if plan, ok := entry["plan"].(string); ok {
				f.Plan = plan
			}
		}
		if f.Email == "" {
			if email, ok := entry["email"].(string); ok {
				f.Email = email
			}
		}
	}
}

func (r *IdentityResolver) cacheKeys(f Facts) []string {
	var keys []string
	if f.SubscriptionID != "" {
		keys = append(keys, subscriptionCacheKey(f.SubscriptionID))
	}
	if f.CustomerID != "" {
		keys = append(keys, customerCacheKey(f.CustomerID))
	}
	if f.Email != "" {
		keys = append(keys, emailCacheKey(f.Email))
	}
	return keys
}
