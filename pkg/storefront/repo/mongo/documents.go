package mongo

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
}

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       price              `bson:"price"`
	Category    string             `bson:"category"`
	ImageURL    string             `bson:"image_url"`
	DateAdded   time.Time          `bson:"date_added"`
	LastUpdated *time.Time         `bson:"last_updated,omitempty"`
}

// price is written as a Decimal128. Documents created by earlier versions of
// the site store prices as doubles, so any BSON number is accepted on read.
type price struct {
	decimal.Decimal
}

func (p price) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d, err := primitive.ParseDecimal128(p.String())
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode price: %w", err)
	}
	return bson.MarshalValue(d)
}

func (p *price) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d, ok := raw.Decimal128OK()
		if !ok {
			return errors.New("malformed decimal128 price")
		}
		v, err := decimal.NewFromString(d.String())
		if err != nil {
			return fmt.Errorf("failed to decode price: %w", err)
		}
		p.Decimal = v
	case bsontype.Double:
		f, ok := raw.DoubleOK()
		if !ok {
			return errors.New("malformed double price")
		}
		p.Decimal = decimal.NewFromFloat(f)
	case bsontype.Int32:
		i, ok := raw.Int32OK()
		if !ok {
			return errors.New("malformed int32 price")
		}
		p.Decimal = decimal.NewFromInt32(i)
	case bsontype.Int64:
		i, ok := raw.Int64OK()
		if !ok {
			return errors.New("malformed int64 price")
		}
		p.Decimal = decimal.NewFromInt(i)
	default:
		return fmt.Errorf("cannot decode %s into a price", t)
	}
	return nil
}

type postDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Content     string             `bson:"content"`
	Author      string             `bson:"author"`
	ImageURL    string             `bson:"image_url"`
	DatePosted  time.Time          `bson:"date_posted"`
	LastUpdated *time.Time         `bson:"last_updated,omitempty"`
}

type reviewDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	ProductID    primitive.ObjectID `bson:"product_id"`
	ReviewerName string             `bson:"reviewer_name"`
	Rating       int                `bson:"rating"`
	Comment      string             `bson:"comment"`
	DatePosted   time.Time          `bson:"date_posted"`
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storefront.ErrInvalidIdentifier
	}
	return oid, nil
}

func toUserDoc(u *storefront.AdminUser) (*userDoc, error) {
	oid, err := objectID(u.ID)
	if err != nil {
		return nil, err
	}
	return &userDoc{ID: oid, Username: u.Username, PasswordHash: u.PasswordHash}, nil
}

func (d *userDoc) toDomain() *storefront.AdminUser {
	return &storefront.AdminUser{ID: d.ID.Hex(), Username: d.Username, PasswordHash: d.PasswordHash}
}

func toProductDoc(p *storefront.Product) (*productDoc, error) {
	oid, err := objectID(p.ID)
	if err != nil {
		return nil, err
	}
	return &productDoc{
		ID:          oid,
		Name:        p.Name,
		Description: p.Description,
		Price:       price{p.Price},
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		DateAdded:   p.DateAdded,
		LastUpdated: p.LastUpdated,
	}, nil
}

func (d *productDoc) toDomain() *storefront.Product {
	return &storefront.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price.Decimal,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		DateAdded:   d.DateAdded.UTC(),
		LastUpdated: utcPtr(d.LastUpdated),
	}
}

func toPostDoc(p *storefront.BlogPost) (*postDoc, error) {
	oid, err := objectID(p.ID)
	if err != nil {
		return nil, err
	}
	return &postDoc{
		ID:          oid,
		Title:       p.Title,
		Content:     p.Content,
		Author:      p.Author,
		ImageURL:    p.ImageURL,
		DatePosted:  p.DatePosted,
		LastUpdated: p.LastUpdated,
	}, nil
}

func (d *postDoc) toDomain() *storefront.BlogPost {
	return &storefront.BlogPost{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Content:     d.Content,
		Author:      d.Author,
		ImageURL:    d.ImageURL,
		DatePosted:  d.DatePosted.UTC(),
		LastUpdated: utcPtr(d.LastUpdated),
	}
}

func toReviewDoc(r *storefront.Review) (*reviewDoc, error) {
	oid, err := objectID(r.ID)
	if err != nil {
		return nil, err
	}
	pid, err := objectID(r.ProductID)
	if err != nil {
		return nil, err
	}
	return &reviewDoc{
		ID:           oid,
		ProductID:    pid,
		ReviewerName: r.ReviewerName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		DatePosted:   r.DatePosted,
	}, nil
}

func (d *reviewDoc) toDomain() *storefront.Review {
	return &storefront.Review{
		ID:           d.ID.Hex(),
		ProductID:    d.ProductID.Hex(),
		ReviewerName: d.ReviewerName,
		Rating:       d.Rating,
		Comment:      d.Comment,
		DatePosted:   d.DatePosted.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
