package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IsDuplicateKeyError reports a MySQL unique-constraint violation. Inbound
// upserts use it to detect a lost insert race on the natural key.
func IsDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// Repository is the canonical-store boundary consumed by the sync core.
// Lookups return (nil, nil) when nothing matches; callers never treat a miss
// as an error.
type Repository interface {
	FindByExternalId(ctx context.Context, kind EntityKind, platform string, externalId string) (Syncable, error)
	FindByNaturalKey(ctx context.Context, kind EntityKind, key string) (Syncable, error)
	Create(ctx context.Context, entity Syncable) error
	Update(ctx context.Context, entity Syncable) error
	Delete(ctx context.Context, kind EntityKind, id int) error

	// SaveExternalIds persists the entity's external id map additively: keys
	// already stored for other platforms survive, and concurrent writers do
	// not clobber each other. rawSnapshot, when non-nil, replaces the stored
	// diagnostic copy of the last inbound payload.
	SaveExternalIds(ctx context.Context, entity Syncable, rawSnapshot []byte) error

	// CountByExternalId reports how many canonical entities of the kind carry
	// the given external id on the platform. The delete orchestrator uses it
	// to refuse remote deletes of shared ids.
	CountByExternalId(ctx context.Context, kind EntityKind, platform string, externalId string) (int64, error)

	GetProduct(ctx context.Context, id int) (*Product, error)

	// UpdatedSince lists entities of the kind touched at or after the cutoff,
	// oldest first, capped at limit. Queued sync runs page through it.
	UpdatedSince(ctx context.Context, kind EntityKind, since time.Time, limit int) ([]Syncable, error)

	RecentTerms(ctx context.Context, since time.Time, kinds []string) ([]Term, error)
	SaveTermExternalIds(ctx context.Context, term *Term) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// AutoMigrate creates/updates the canonical tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Product{},
		&ProductPrice{},
		&Order{},
		&OrderItem{},
		&Customer{},
		&Coupon{},
		&Term{},
		&SyncRun{},
		&SyncError{},
	)
}

func newEntity(kind EntityKind) (Syncable, error) {
	switch kind {
	case KindProduct:
		return &Product{}, nil
	case KindOrder:
		return &Order{}, nil
	case KindCustomer:
		return &Customer{}, nil
	case KindCoupon:
		return &Coupon{}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

func naturalKeyColumn(kind EntityKind) (string, error) {
	switch kind {
	case KindProduct:
		return "isbn", nil
	case KindOrder:
		return "order_number", nil
	case KindCustomer:
		return "email", nil
	case KindCoupon:
		return "code", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

func (r *gormRepository) withAssociations(q *gorm.DB, kind EntityKind) *gorm.DB {
	switch kind {
	case KindProduct:
		return q.Preload("Prices")
	case KindOrder:
		return q.Preload("Items")
	default:
		return q
	}
}

// jsonPath builds the MySQL JSON path for one platform key of external_ids.
func jsonPath(platform string) string {
	return `$."` + platform + `"`
}

func (r *gormRepository) FindByExternalId(ctx context.Context, kind EntityKind, platform string, externalId string) (Syncable, error) {
	if externalId == "" {
		return nil, nil
	}
	entity, err := newEntity(kind)
	if err != nil {
		return nil, err
	}
	q := r.withAssociations(r.db.WithContext(ctx), kind).
		Where("JSON_UNQUOTE(JSON_EXTRACT(external_ids, ?)) = ?", jsonPath(platform), externalId)
	if err := q.Take(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func (r *gormRepository) FindByNaturalKey(ctx context.Context, kind EntityKind, key string) (Syncable, error) {
	if key == "" {
		return nil, nil
	}
	entity, err := newEntity(kind)
	if err != nil {
		return nil, err
	}
	column, err := naturalKeyColumn(kind)
	if err != nil {
		return nil, err
	}
	q := r.withAssociations(r.db.WithContext(ctx), kind).
		Where(fmt.Sprintf("%s = ?", column), key)
	if err := q.Take(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func (r *gormRepository) Create(ctx context.Context, entity Syncable) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *gormRepository) Update(ctx context.Context, entity Syncable) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(entity).Error
}

func (r *gormRepository) Delete(ctx context.Context, kind EntityKind, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch kind {
		case KindProduct:
			if err := tx.Where("product_id = ?", id).Delete(&ProductPrice{}).Error; err != nil {
				return err
			}
			return tx.Delete(&Product{}, id).Error
		case KindOrder:
			if err := tx.Where("order_id = ?", id).Delete(&OrderItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&Order{}, id).Error
		case KindCustomer:
			return tx.Delete(&Customer{}, id).Error
		case KindCoupon:
			return tx.Delete(&Coupon{}, id).Error
		default:
			return fmt.Errorf("unknown entity kind %q", kind)
		}
	})
}

func (r *gormRepository) SaveExternalIds(ctx context.Context, entity Syncable, rawSnapshot []byte) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := newEntity(entity.Kind())
		if err != nil {
			return err
		}
		// Row lock so two concurrent syncs of the same entity merge instead
		// of overwriting each other's platform keys.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(current, entity.EntityID()).Error; err != nil {
			return err
		}

		merged := ExternalIdMap{}
		for platform, externalId := range currentExternalIds(current) {
			merged[platform] = externalId
		}
		for platform, externalId := range currentExternalIds(entity) {
			if externalId != "" {
				merged[platform] = externalId
			}
		}

		updates := map[string]interface{}{"external_ids": merged}
		if rawSnapshot != nil {
			updates["raw_external_json"] = rawSnapshot
		}
		return tx.Model(current).Where("id = ?", entity.EntityID()).Updates(updates).Error
	})
}

func currentExternalIds(entity Syncable) ExternalIdMap {
	switch e := entity.(type) {
	case *Product:
		return e.ExternalIds
	case *Order:
		return e.ExternalIds
	case *Customer:
		return e.ExternalIds
	case *Coupon:
		return e.ExternalIds
	default:
		return nil
	}
}

func (r *gormRepository) CountByExternalId(ctx context.Context, kind EntityKind, platform string, externalId string) (int64, error) {
	if externalId == "" {
		return 0, nil
	}
	entity, err := newEntity(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.WithContext(ctx).Model(entity).
		Where("JSON_UNQUOTE(JSON_EXTRACT(external_ids, ?)) = ?", jsonPath(platform), externalId).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) GetProduct(ctx context.Context, id int) (*Product, error) {
	var product Product
	err := r.db.WithContext(ctx).Preload("Prices").Take(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *gormRepository) UpdatedSince(ctx context.Context, kind EntityKind, since time.Time, limit int) ([]Syncable, error) {
	q := r.withAssociations(r.db.WithContext(ctx), kind).
		Where("updated_at >= ?", since).
		Order("updated_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entities []Syncable
	appendAll := func(err error, each func(i int) Syncable, n int) error {
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			entities = append(entities, each(i))
		}
		return nil
	}

	switch kind {
	case KindProduct:
		var rows []Product
		err := q.Find(&rows).Error
		if err := appendAll(err, func(i int) Syncable { return &rows[i] }, len(rows)); err != nil {
			return nil, err
		}
	case KindOrder:
		var rows []Order
		err := q.Find(&rows).Error
		if err := appendAll(err, func(i int) Syncable { return &rows[i] }, len(rows)); err != nil {
			return nil, err
		}
	case KindCustomer:
		var rows []Customer
		err := q.Find(&rows).Error
		if err := appendAll(err, func(i int) Syncable { return &rows[i] }, len(rows)); err != nil {
			return nil, err
		}
	case KindCoupon:
		var rows []Coupon
		err := q.Find(&rows).Error
		if err := appendAll(err, func(i int) Syncable { return &rows[i] }, len(rows)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	return entities, nil
}

func (r *gormRepository) RecentTerms(ctx context.Context, since time.Time, kinds []string) ([]Term, error) {
	q := r.db.WithContext(ctx).Where("updated_at >= ?", since)
	if len(kinds) > 0 {
		q = q.Where("kind IN ?", kinds)
	}
	var terms []Term
	if err := q.Order("updated_at desc").Find(&terms).Error; err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *gormRepository) SaveTermExternalIds(ctx context.Context, term *Term) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Term
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&current, term.ID).Error; err != nil {
			return err
		}
		merged := ExternalIdMap{}
		for platform, externalId := range current.ExternalIds {
			merged[platform] = externalId
		}
		for platform, externalId := range term.ExternalIds {
			if externalId != "" {
				merged[platform] = externalId
			}
		}
		return tx.Model(&Term{}).Where("id = ?", term.ID).
			Update("external_ids", merged).Error
	})
}
