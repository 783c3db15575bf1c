package repository

import "gorm.io/gorm"

// UnitOfWork bundles the repositories behind one transactional
// boundary. Composite mutations (approve, promote, restore) run their
// whole row sequence inside InTx so a mid-sequence failure rolls back
// everything, including the revision row.
type UnitOfWork interface {
	Posts() PostRepository
	Modules() ModuleRepository
	Placements() PlacementRepository
	CustomFields() CustomFieldRepository
	Taxonomy() TaxonomyRepository
	Revisions() RevisionRepository
	Activities() ActivityRepository
	InTx(fn func(tx UnitOfWork) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a UnitOfWork over a gorm connection
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Posts() PostRepository               { return NewPostRepository(u.db) }
func (u *gormUnitOfWork) Modules() ModuleRepository           { return NewModuleRepository(u.db) }
func (u *gormUnitOfWork) Placements() PlacementRepository     { return NewPlacementRepository(u.db) }
func (u *gormUnitOfWork) CustomFields() CustomFieldRepository { return NewCustomFieldRepository(u.db) }
func (u *gormUnitOfWork) Taxonomy() TaxonomyRepository        { return NewTaxonomyRepository(u.db) }
func (u *gormUnitOfWork) Revisions() RevisionRepository       { return NewRevisionRepository(u.db) }
func (u *gormUnitOfWork) Activities() ActivityRepository      { return NewActivityRepository(u.db) }

func (u *gormUnitOfWork) InTx(fn func(tx UnitOfWork) error) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormUnitOfWork{db: tx})
	})
}
