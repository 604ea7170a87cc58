package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

const collectionParcels = "parcels"

type ParcelRepository struct {
	col *mongo.Collection
}

func NewParcelRepository(db *mongo.Database) *ParcelRepository {
	return &ParcelRepository{col: db.Collection(collectionParcels)}
}

var _ ports.ParcelRepository = (*ParcelRepository)(nil)

// Create inserts a new parcel document. A unique index on tracking_code turns
// a collision into domain.ErrDuplicateTrackingCode.
func (r *ParcelRepository) Create(ctx context.Context, p *domain.Parcel) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateTrackingCode
		}
		return fmt.Errorf("insert parcel: %w", err)
	}
	return nil
}

func (r *ParcelRepository) FindByID(ctx context.Context, id string) (*domain.Parcel, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ParcelRepository) FindByTrackingCode(ctx context.Context, code string) (*domain.Parcel, error) {
	return r.findOne(ctx, bson.M{"tracking_code": code})
}

func (r *ParcelRepository) findOne(ctx context.Context, filter bson.M) (*domain.Parcel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Parcel
	err := r.col.FindOne(ctx, filter).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrParcelNotFound
		}
		return nil, fmt.Errorf("find parcel: %w", err)
	}
	return &p, nil
}

// Save writes the lifecycle fields of p in one update guarded by the version
// the parcel was loaded with. Identity fields, tracking code and fee are
// never part of the update.
func (r *ParcelRepository) Save(ctx context.Context, p *domain.Parcel) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": p.ID, "version": p.Version}
	update := bson.M{
		"$set": bson.M{
			"current_status": p.CurrentStatus,
			"status_history": p.StatusHistory,
			"is_blocked":     p.IsBlocked,
			"updated_at":     p.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("save parcel: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": p.ID})
		if err != nil {
			return fmt.Errorf("save parcel: %w", err)
		}
		if n == 0 {
			return domain.ErrParcelNotFound
		}
		return domain.ErrConcurrentModification
	}

	p.Version++
	return nil
}

// List returns a page of parcels matching filter, newest first.
func (r *ParcelRepository) List(ctx context.Context, f ports.ListParcelsFilter) ([]*domain.Parcel, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := listQuery(f)

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count parcels: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list parcels: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]*domain.Parcel, 0, f.Limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode parcels: %w", err)
	}
	return items, total, nil
}

func listQuery(f ports.ListParcelsFilter) bson.M {
	query := bson.M{}
	if f.SenderID != "" {
		query["sender_id"] = f.SenderID
	}
	if f.ReceiverID != "" {
		query["receiver_id"] = f.ReceiverID
	}
	switch len(f.Statuses) {
	case 0:
	case 1:
		query["current_status"] = f.Statuses[0]
	default:
		query["current_status"] = bson.M{"$in": f.Statuses}
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"tracking_code": re},
			bson.M{"receiver_info.name": re},
			bson.M{"receiver_info.city": re},
		}
	}
	return query
}

// EnsureIndexes creates necessary indexes on the parcels collection.
func (r *ParcelRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "current_status", Value: 1}}},
		{Keys: bson.D{{Key: "current_status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
