package validator

import "testing"

type assignRequest struct {
	CounsellorIDs []string `validate:"required,min=1,dive,counsellor_id"`
}

func TestCounsellorIDTag(t *testing.T) {
	v := New()
	if err := v.Struct(assignRequest{CounsellorIDs: []string{"CNS-1A2B3C4D"}}); err != nil {
		t.Fatalf("expected valid counsellor id, got %v", err)
	}
	if err := v.Struct(assignRequest{CounsellorIDs: []string{"cns-1"}}); err == nil {
		t.Fatal("expected invalid counsellor id to fail")
	}
	if err := v.Struct(assignRequest{}); err == nil {
		t.Fatal("expected empty list to fail")
	}
}
