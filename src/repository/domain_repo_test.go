package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/ascension-ai/backend/src/testutil"
	"github.com/google/uuid"
)

func newTestRecord(ownerID, funnelID uuid.UUID, name string) *domain.DomainRecord {
	return &domain.DomainRecord{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		FunnelID:          funnelID,
		Domain:            name,
		VerificationToken: domain.NewVerificationToken(),
		SSLStatus:         domain.SSLStatusPending,
	}
}

func TestDomainRepository_CreateAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDomainRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()
	funnelID := uuid.New()
	record := newTestRecord(ownerID, funnelID, "www.repo-test.com")

	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(ctx, record.ID, ownerID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Domain != "www.repo-test.com" {
		t.Errorf("Expected domain www.repo-test.com, got %s", found.Domain)
	}
	if found.Verified {
		t.Error("New record should not be verified")
	}
	if found.SSLStatus != domain.SSLStatusPending {
		t.Errorf("Expected ssl_status pending, got %s", found.SSLStatus)
	}
	if found.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	// Owner scoping: another owner cannot see the record.
	if _, err := repo.FindByID(ctx, record.ID, uuid.New()); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound for foreign owner, got %v", err)
	}

	byName, err := repo.FindByDomain(ctx, "WWW.Repo-Test.COM")
	if err != nil {
		t.Fatalf("FindByDomain failed: %v", err)
	}
	if byName.ID != record.ID {
		t.Errorf("Expected record %s, got %s", record.ID, byName.ID)
	}
}

func TestDomainRepository_UniqueDomain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDomainRepository(db)
	ctx := context.Background()

	first := newTestRecord(uuid.New(), uuid.New(), "unique.repo-test.com")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Same name, different owner: the unique index rejects the claim.
	second := newTestRecord(uuid.New(), uuid.New(), "unique.repo-test.com")
	if err := repo.Create(ctx, second); !errors.Is(err, domain.ErrDomainTaken) {
		t.Errorf("Expected ErrDomainTaken, got %v", err)
	}
}

func TestDomainRepository_MarkVerified(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDomainRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()
	record := newTestRecord(ownerID, uuid.New(), "verify.repo-test.com")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Millisecond)
	if err := repo.MarkVerified(ctx, record.ID, ownerID, at); err != nil {
		t.Fatalf("MarkVerified failed: %v", err)
	}

	found, err := repo.FindByID(ctx, record.ID, ownerID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if !found.Verified {
		t.Error("Record should be verified")
	}
	if found.SSLStatus != domain.SSLStatusActive {
		t.Errorf("Expected ssl_status active, got %s", found.SSLStatus)
	}
	if found.LastVerifiedAt == nil {
		t.Fatal("LastVerifiedAt should be set")
	}

	// Keyed by owner as well as id.
	if err := repo.MarkVerified(ctx, record.ID, uuid.New(), at); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound for foreign owner, got %v", err)
	}

	verified, err := repo.FindVerified(ctx)
	if err != nil {
		t.Fatalf("FindVerified failed: %v", err)
	}
	if len(verified) != 1 {
		t.Errorf("Expected 1 verified record, got %d", len(verified))
	}
}

func TestDomainRepository_FindByOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDomainRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()
	funnelA := uuid.New()
	funnelB := uuid.New()

	recordA := newTestRecord(ownerID, funnelA, "a.repo-test.com")
	recordB := newTestRecord(ownerID, funnelB, "b.repo-test.com")
	for _, record := range []*domain.DomainRecord{recordA, recordB} {
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := repo.FindByOwner(ctx, ownerID, nil, nil)
	if err != nil {
		t.Fatalf("FindByOwner failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 records, got %d", len(all))
	}

	scoped, err := repo.FindByOwner(ctx, ownerID, &funnelA, nil)
	if err != nil {
		t.Fatalf("FindByOwner with funnel filter failed: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != recordA.ID {
		t.Errorf("Expected only record %s, got %v", recordA.ID, scoped)
	}

	byID, err := repo.FindByOwner(ctx, ownerID, nil, &recordB.ID)
	if err != nil {
		t.Fatalf("FindByOwner with id filter failed: %v", err)
	}
	if len(byID) != 1 || byID[0].ID != recordB.ID {
		t.Errorf("Expected only record %s, got %v", recordB.ID, byID)
	}
}

func TestDomainRepository_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDomainRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()
	record := newTestRecord(ownerID, uuid.New(), "delete.repo-test.com")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Foreign owner cannot delete.
	if err := repo.Delete(ctx, record.ID, uuid.New()); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound for foreign owner, got %v", err)
	}

	if err := repo.Delete(ctx, record.ID, ownerID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.FindByID(ctx, record.ID, ownerID); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound after delete, got %v", err)
	}

	if err := repo.Delete(ctx, record.ID, ownerID); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound on second delete, got %v", err)
	}
}

func TestDomainRepository_DeleteByOwnerAndFunnel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDomainRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()
	funnelID := uuid.New()
	record := newTestRecord(ownerID, funnelID, "replace.repo-test.com")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	deleted, err := repo.DeleteByOwnerAndFunnel(ctx, ownerID, funnelID)
	if err != nil {
		t.Fatalf("DeleteByOwnerAndFunnel failed: %v", err)
	}
	if len(deleted) != 1 || deleted[0].Domain != "replace.repo-test.com" {
		t.Errorf("Expected the deleted record back, got %v", deleted)
	}

	// Nothing left for the pair: no error, empty result.
	deleted, err = repo.DeleteByOwnerAndFunnel(ctx, ownerID, funnelID)
	if err != nil {
		t.Fatalf("DeleteByOwnerAndFunnel on empty pair failed: %v", err)
	}
	if len(deleted) != 0 {
		t.Errorf("Expected no deleted records, got %d", len(deleted))
	}
}
