package assessment

import "context"

type StoreAPI interface {
	// Insert persists a new record, enforcing one record per employee
	// (case-insensitive name). Returns DuplicateError when one exists.
	Insert(ctx context.Context, rec Record) (Record, error)
	GetByID(ctx context.Context, id string) (Record, error)
	// FindByEmployee looks a record up by employee display name,
	// case-insensitive. The bool reports whether one was found.
	FindByEmployee(ctx context.Context, name string) (Record, bool, error)
	ListByManager(ctx context.Context, managerName string) ([]Record, error)
	ListByProgramManager(ctx context.Context, name string, statuses []Status) ([]Record, error)
	// Update writes rec back iff the stored version still equals rec.Version,
	// bumping version and updated_at. Returns ErrConflict on a lost race.
	Update(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id string) error
}
