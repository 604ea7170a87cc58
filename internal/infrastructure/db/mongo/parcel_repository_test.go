package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

func TestListQuery_Empty(t *testing.T) {
	q := listQuery(ports.ListParcelsFilter{})
	if len(q) != 0 {
		t.Fatalf("expected empty query, got %v", q)
	}
}

func TestListQuery_ScopesAndStatuses(t *testing.T) {
	q := listQuery(ports.ListParcelsFilter{
		ReceiverID: "r-1",
		Statuses:   []domain.ParcelStatus{domain.StatusDelivered, domain.StatusReturned},
	})
	if q["receiver_id"] != "r-1" {
		t.Errorf("expected receiver_id filter, got %v", q["receiver_id"])
	}
	in, ok := q["current_status"].(bson.M)
	if !ok {
		t.Fatalf("expected $in on current_status, got %T", q["current_status"])
	}
	if statuses, _ := in["$in"].([]domain.ParcelStatus); len(statuses) != 2 {
		t.Errorf("expected two statuses, got %v", in["$in"])
	}

	q = listQuery(ports.ListParcelsFilter{SenderID: "s-1", Statuses: []domain.ParcelStatus{domain.StatusOnHold}})
	if q["current_status"] != domain.StatusOnHold {
		t.Errorf("expected single status equality, got %v", q["current_status"])
	}
	if q["sender_id"] != "s-1" {
		t.Errorf("expected sender_id filter, got %v", q["sender_id"])
	}
}

func TestListQuery_SearchIsEscaped(t *testing.T) {
	q := listQuery(ports.ListParcelsFilter{Search: "TRK-2026.01"})

	or, ok := q["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("expected $or with 3 clauses, got %v", q["$or"])
	}
	re, ok := or[0].(bson.M)["tracking_code"].(primitive.Regex)
	if !ok {
		t.Fatalf("expected regex on tracking_code")
	}
	if re.Pattern != `TRK-2026\.01` || re.Options != "i" {
		t.Errorf("unexpected regex: %+v", re)
	}
}
