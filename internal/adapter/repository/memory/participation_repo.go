package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// ParticipationRepository implements usecase.ParticipationRepository.
type ParticipationRepository struct {
	store *Store
}

// NewParticipationRepository creates a new ParticipationRepository.
func NewParticipationRepository(store *Store) *ParticipationRepository {
	return &ParticipationRepository{store: store}
}

// Create creates a new participation, refusing a second live one for the
// same helper and listing.
func (r *ParticipationRepository) Create(ctx context.Context, tx usecase.Transaction, p *domain.Participation) error {
	st, err := stateOf(tx)
	if err != nil {
		return err
	}
	if _, ok := st.participations[p.ID]; ok {
		return fmt.Errorf("participation %s already exists", p.ID)
	}
	if p.Status.IsLive() && findLive(st, p.ListingID, p.HelperID) != nil {
		return domain.ErrDuplicateProposal
	}
	st.participations[p.ID] = *p
	return nil
}

// GetByID retrieves a participation by ID.
func (r *ParticipationRepository) GetByID(ctx context.Context, id string) (*domain.Participation, error) {
	var (
		p  domain.Participation
		ok bool
	)
	r.store.view(func(st *state) {
		p, ok = st.participations[id]
	})
	if !ok {
		return nil, domain.ErrParticipationNotFound
	}
	return &p, nil
}

// GetByIDForUpdate retrieves a participation inside tx.
func (r *ParticipationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Participation, error) {
	st, err := stateOf(tx)
	if err != nil {
		return nil, err
	}
	p, ok := st.participations[id]
	if !ok {
		return nil, domain.ErrParticipationNotFound
	}
	return &p, nil
}

// Update writes the mutable fields of a participation.
func (r *ParticipationRepository) Update(ctx context.Context, tx usecase.Transaction, p *domain.Participation) error {
	st, err := stateOf(tx)
	if err != nil {
		return err
	}
	if _, ok := st.participations[p.ID]; !ok {
		return domain.ErrParticipationNotFound
	}
	st.participations[p.ID] = *p
	return nil
}

// FindLive returns the helper's live participation on the listing, or nil.
func (r *ParticipationRepository) FindLive(ctx context.Context, tx usecase.Transaction, listingID, helperID string) (*domain.Participation, error) {
	st, err := stateOf(tx)
	if err != nil {
		return nil, err
	}
	return findLive(st, listingID, helperID), nil
}

func findLive(st *state, listingID, helperID string) *domain.Participation {
	for _, p := range st.participations {
		if p.ListingID == listingID && p.HelperID == helperID && p.Status.IsLive() {
			p := p
			return &p
		}
	}
	return nil
}

// ListByListing lists a listing's participations, oldest first.
func (r *ParticipationRepository) ListByListing(ctx context.Context, listingID string, limit, offset int) ([]*domain.Participation, error) {
	var result []*domain.Participation
	r.store.view(func(st *state) {
		for _, p := range st.participations {
			if p.ListingID == listingID {
				p := p
				result = append(result, &p)
			}
		}
	})

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return paginate(result, limit, offset), nil
}
