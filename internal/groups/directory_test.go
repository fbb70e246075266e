package groups

import (
	"errors"
	"testing"

	"github.com/tallybot/tally/internal/models"
)

var (
	aa = models.User{Name: "AA"}
	bb = models.User{Name: "BB"}
)

func TestCreate(t *testing.T) {
	d := NewDirectory()
	if err := d.Create("TRIP"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := d.Create("TRIP"); !errors.Is(err, ErrGroupExists) {
		t.Errorf("duplicate Create error = %v, want %v", err, ErrGroupExists)
	}
}

func TestAddMember(t *testing.T) {
	d := NewDirectory()
	if err := d.AddMember("TRIP", aa); !errors.Is(err, ErrNoSuchGroup) {
		t.Errorf("AddMember to missing group error = %v, want %v", err, ErrNoSuchGroup)
	}
	if err := d.Create("TRIP"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := d.AddMember("TRIP", aa); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := d.AddMember("TRIP", aa); !errors.Is(err, ErrMemberExists) {
		t.Errorf("duplicate AddMember error = %v, want %v", err, ErrMemberExists)
	}
}

func TestRemoveMember(t *testing.T) {
	d := NewDirectory()
	if err := d.RemoveMember("TRIP", aa); !errors.Is(err, ErrNoSuchGroup) {
		t.Errorf("RemoveMember from missing group error = %v, want %v", err, ErrNoSuchGroup)
	}
	if err := d.Create("TRIP"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := d.AddMember("TRIP", aa); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := d.RemoveMember("TRIP", bb); !errors.Is(err, ErrNoSuchMember) {
		t.Errorf("RemoveMember of absent user error = %v, want %v", err, ErrNoSuchMember)
	}
	if err := d.RemoveMember("TRIP", aa); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if got := d.Members("TRIP"); len(got) != 0 {
		t.Errorf("Members after removal = %v, want empty", got)
	}
}

func TestMembersOrderAndUnknownGroup(t *testing.T) {
	d := NewDirectory()
	if got := d.Members("NOPE"); got != nil {
		t.Errorf("Members of unknown group = %v, want nil", got)
	}
	if err := d.Create("TRIP"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for _, u := range []models.User{bb, aa} {
		if err := d.AddMember("TRIP", u); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	}
	got := d.Members("TRIP")
	if len(got) != 2 || got[0] != bb || got[1] != aa {
		t.Errorf("Members = %v, want [BB AA]", got)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	d := NewDirectory()
	if err := d.Create("TRIP"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := d.AddMember("TRIP", aa); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	restored := RestoreDirectory(d.Snapshot())
	got := restored.Members("TRIP")
	if len(got) != 1 || got[0] != aa {
		t.Errorf("restored members = %v, want [AA]", got)
	}
}
