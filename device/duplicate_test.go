package device

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/holiman/uint256"
)

func TestDuplicate(t *testing.T) {
	orig := validDevice()
	orig.Public = true
	orig.AssignIDs()
	stride := uint256.NewInt(4)
	orig.Peripherals[0].Registers[0].ArrayStride = stride

	dup := orig.Duplicate("user-42")

	if dup.OriginalID != orig.ID || dup.OwnerID != "user-42" || dup.Public {
		t.Errorf("duplicate header: original %q owner %q public %v", dup.OriginalID, dup.OwnerID, dup.Public)
	}

	seen := map[string]bool{}
	orig.walkIDs(func(id *string) { seen[*id] = true })
	dup.walkIDs(func(id *string) {
		if *id == "" || seen[*id] {
			t.Errorf("duplicate reuses or lacks ID %q", *id)
		}
	})

	// Same content apart from the identity.
	ignore := cmpopts.IgnoreFields(Device{}, "ID", "OwnerID", "OriginalID", "Public")
	ignoreIDs := cmpopts.IgnoreFields(Peripheral{}, "ID")
	ignoreRegIDs := cmpopts.IgnoreFields(Register{}, "ID")
	ignoreFieldIDs := cmpopts.IgnoreFields(Field{}, "ID")
	if diff := cmp.Diff(orig, dup, ignore, ignoreIDs, ignoreRegIDs, ignoreFieldIDs, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("duplicate content mismatch (-orig +dup):\n%s", diff)
	}

	// Deep copy.
	dup.Peripherals[0].Registers[0].Fields[0].Values[0].Name = "Changed"
	dup.Peripherals[0].Registers[0].ArrayStride.SetUint64(8)
	if orig.Peripherals[0].Registers[0].Fields[0].Values[0].Name != "Input" || stride.Uint64() != 4 {
		t.Error("duplicate shares nodes with the original")
	}
}

func TestAssignIDsKeepsExisting(t *testing.T) {
	dev := validDevice()
	dev.ID = "keep"
	dev.AssignIDs()
	if dev.ID != "keep" || dev.Peripherals[0].ID == "" || dev.Peripherals[0].Registers[0].Fields[1].ID == "" {
		t.Errorf("AssignIDs: device %q peripheral %q", dev.ID, dev.Peripherals[0].ID)
	}
}
