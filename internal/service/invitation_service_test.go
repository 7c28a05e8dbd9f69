package service

import (
	"context"
	"testing"
	"time"

	"vetclinic/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	byID       map[string]*model.User
	byEmail    map[string]*model.User
	byUsername map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:       make(map[string]*model.User),
		byEmail:    make(map[string]*model.User),
		byUsername: make(map[string]*model.User),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := *user
	r.byID[user.ID.String()] = &stored
	r.byEmail[user.Email] = &stored
	r.byUsername[user.Username] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := r.byUsername[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) List(context.Context, int, int) ([]model.User, int64, error) {
	return nil, 0, nil
}

func (r *fakeUserRepo) ListActiveByRole(context.Context, string) ([]model.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	stored := *user
	r.byID[user.ID.String()] = &stored
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *fakeUserRepo) SaveRefreshToken(context.Context, *model.RefreshToken) error { return nil }
func (r *fakeUserRepo) GetRefreshToken(context.Context, string) (*model.RefreshToken, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) DeleteRefreshToken(context.Context, string) error  { return nil }
func (r *fakeUserRepo) DeleteExpiredRefreshTokens(context.Context) error { return nil }

type fakeInvitationRepo struct {
	invs map[uuid.UUID]*model.StaffInvitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invs: make(map[uuid.UUID]*model.StaffInvitation)}
}

func (r *fakeInvitationRepo) Create(_ context.Context, inv *model.StaffInvitation) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	stored := *inv
	r.invs[inv.ID] = &stored
	return nil
}

func (r *fakeInvitationRepo) Update(_ context.Context, inv *model.StaffInvitation) error {
	stored := *inv
	r.invs[inv.ID] = &stored
	return nil
}

func (r *fakeInvitationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StaffInvitation, error) {
	inv, ok := r.invs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvitationRepo) FindPendingByEmail(_ context.Context, email string) (*model.StaffInvitation, error) {
	for _, inv := range r.invs {
		if inv.Email == email && inv.Status == model.InvitationPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInvitationRepo) List(context.Context, string, int, int) ([]model.StaffInvitation, int64, error) {
	var out []model.StaffInvitation
	for _, inv := range r.invs {
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func newInvitationFixture() (InvitationService, *fakeInvitationRepo, *fakeUserRepo) {
	invRepo := newFakeInvitationRepo()
	userRepo := newFakeUserRepo()
	svc := NewInvitationService(invRepo, userRepo, &fakeAuditRepo{}, fakeTxManager{})
	return svc, invRepo, userRepo
}

func TestInvitationAcceptFlow(t *testing.T) {
	svc, invRepo, _ := newInvitationFixture()
	adminID := uuid.NewString()

	created, err := svc.Create(context.Background(), adminID, CreateInvitationRequest{
		Email: "newvet@example.com",
		Role:  "veterinarian",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Token == "" {
		t.Fatal("raw token missing from create response")
	}
	if created.Status != model.InvitationPending {
		t.Errorf("status = %s, want PENDING", created.Status)
	}

	// Only the hash is persisted
	stored := invRepo.invs[uuid.MustParse(created.ID)]
	if stored.TokenHash == created.Token {
		t.Error("raw token must not be stored")
	}

	user, err := svc.Accept(context.Background(), AcceptInvitationRequest{
		InvitationID: created.ID,
		Token:        created.Token,
		Username:     "drnew",
		Phone:        "555-0100",
		Password:     "secret123",
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if user.Role != "veterinarian" {
		t.Errorf("role = %s, want veterinarian", user.Role)
	}
	if user.Email != "newvet@example.com" {
		t.Errorf("email = %s", user.Email)
	}

	// Accepted invitations are single use
	if _, err := svc.Accept(context.Background(), AcceptInvitationRequest{
		InvitationID: created.ID,
		Token:        created.Token,
		Username:     "other",
		Phone:        "555-0101",
		Password:     "secret123",
	}); err == nil {
		t.Fatal("expected error accepting twice")
	}
}

func TestInvitationAcceptWrongToken(t *testing.T) {
	svc, _, _ := newInvitationFixture()

	created, err := svc.Create(context.Background(), uuid.NewString(), CreateInvitationRequest{
		Email: "staff@example.com",
		Role:  "staff",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Accept(context.Background(), AcceptInvitationRequest{
		InvitationID: created.ID,
		Token:        "bogus",
		Username:     "someone",
		Phone:        "555-0102",
		Password:     "secret123",
	}); err == nil {
		t.Fatal("expected error for wrong token")
	}
}

func TestInvitationExpiredDerivedOnRead(t *testing.T) {
	svc, invRepo, _ := newInvitationFixture()

	created, err := svc.Create(context.Background(), uuid.NewString(), CreateInvitationRequest{
		Email: "late@example.com",
		Role:  "staff",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stored := invRepo.invs[uuid.MustParse(created.ID)]
	stored.ExpiresAt = time.Now().Add(-time.Hour)

	list, _, err := svc.List(context.Background(), "", 1, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d, want 1", len(list))
	}
	if list[0].Status != model.InvitationExpired {
		t.Errorf("status = %s, want EXPIRED", list[0].Status)
	}
	// Stored status stays PENDING; expiry is display only
	if stored.Status != model.InvitationPending {
		t.Errorf("stored status = %s, want PENDING", stored.Status)
	}

	if _, err := svc.Accept(context.Background(), AcceptInvitationRequest{
		InvitationID: created.ID,
		Token:        created.Token,
		Username:     "late",
		Phone:        "555-0103",
		Password:     "secret123",
	}); err == nil {
		t.Fatal("expected error accepting expired invitation")
	}
}

func TestInvitationRevoke(t *testing.T) {
	svc, _, _ := newInvitationFixture()

	created, err := svc.Create(context.Background(), uuid.NewString(), CreateInvitationRequest{
		Email: "gone@example.com",
		Role:  "staff",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Revoke(context.Background(), uuid.NewString(), created.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := svc.Accept(context.Background(), AcceptInvitationRequest{
		InvitationID: created.ID,
		Token:        created.Token,
		Username:     "gone",
		Phone:        "555-0104",
		Password:     "secret123",
	}); err == nil {
		t.Fatal("expected error accepting revoked invitation")
	}

	// Revoked is terminal
	if err := svc.Revoke(context.Background(), uuid.NewString(), created.ID); err == nil {
		t.Fatal("expected error revoking twice")
	}
}

func TestInvitationDuplicatePending(t *testing.T) {
	svc, _, _ := newInvitationFixture()

	if _, err := svc.Create(context.Background(), uuid.NewString(), CreateInvitationRequest{
		Email: "dup@example.com",
		Role:  "staff",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Create(context.Background(), uuid.NewString(), CreateInvitationRequest{
		Email: "dup@example.com",
		Role:  "staff",
	}); err == nil {
		t.Fatal("expected error for duplicate pending invitation")
	}
}
