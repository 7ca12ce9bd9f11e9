package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/datavault/services/item/domain/models"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   models.ItemName
		wantErr bool
	}{
		{"valid name", "Valid Item Name", false},
		{"valid name with special chars", "Item-Name_123!@#", false},
		{"valid single space between words", "item name", false},
		{"leading whitespace", " Name", true},
		{"trailing whitespace", "Name ", true},
		{"only whitespace", "   ", true},
		{"control character", "Name\x00", true},
		{"tab character", "Na\tme", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q): err = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateItemForCreation(t *testing.T) {
	valid := func() *models.Item {
		item, _ := models.NewItem("Valid Name", []byte("payload"))
		return item
	}

	t.Run("valid item passes", func(t *testing.T) {
		if err := ValidateItemForCreation(valid()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("nil item fails", func(t *testing.T) {
		if err := ValidateItemForCreation(nil); err == nil {
			t.Fatal("expected error for nil item")
		}
	})

	t.Run("nil data fails", func(t *testing.T) {
		item := valid()
		item.Data = nil
		if err := ValidateItemForCreation(item); err == nil {
			t.Fatal("expected error for nil data")
		}
	})

	t.Run("empty data passes", func(t *testing.T) {
		item := valid()
		item.Data = []byte{}
		if err := ValidateItemForCreation(item); err != nil {
			t.Fatalf("unexpected error for empty payload: %v", err)
		}
	})

	t.Run("zero id fails", func(t *testing.T) {
		item := valid()
		item.ID = uuid.Nil
		if err := ValidateItemForCreation(item); err == nil {
			t.Fatal("expected error for zero id")
		}
	})

	t.Run("updated_at before created_at fails", func(t *testing.T) {
		item := valid()
		item.UpdatedAt = item.CreatedAt.Add(-time.Second)
		if err := ValidateItemForCreation(item); err == nil {
			t.Fatal("expected error when updated_at precedes created_at")
		}
	})

	t.Run("invalid name fails", func(t *testing.T) {
		item := valid()
		item.Name = " padded "
		if err := ValidateItemForCreation(item); err == nil {
			t.Fatal("expected error for padded name")
		}
	})
}
