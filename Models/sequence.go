package Models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// NumberSequence backs human-readable document numbers (load numbers, trip
// sheet numbers). Allocation uses an optimistic compare-and-swap so two
// concurrent writers can never be handed the same number — reading the last
// row's id and adding one is not safe under concurrent inserts.
type NumberSequence struct {
	gorm.Model
	Name      string `json:"name" gorm:"unique"`
	Prefix    string `json:"prefix"`
	NextValue int64  `json:"next_value"`
}

const sequenceAllocRetries = 10

// AllocateNumber reserves the next value of the named sequence and returns it
// formatted as PREFIX-000123. The sequence row is created on first use.
func AllocateNumber(db *gorm.DB, name, prefix string) (string, error) {
	for attempt := 0; attempt < sequenceAllocRetries; attempt++ {
		var seq NumberSequence
		err := db.Where("name = ?", name).First(&seq).Error
		if err == gorm.ErrRecordNotFound {
			seq = NumberSequence{Name: name, Prefix: prefix, NextValue: 1}
			if createErr := db.Create(&seq).Error; createErr != nil {
				// Lost the creation race; retry the read.
				continue
			}
		} else if err != nil {
			return "", err
		}

		// Compare-and-swap: the update only lands if nobody moved the
		// counter between our read and our write.
		result := db.Model(&NumberSequence{}).
			Where("name = ? AND next_value = ?", name, seq.NextValue).
			Update("next_value", seq.NextValue+1)
		if result.Error != nil {
			return "", result.Error
		}
		if result.RowsAffected == 1 {
			return fmt.Sprintf("%s-%06d", seq.Prefix, seq.NextValue), nil
		}

		// Another writer won; back off briefly and try again.
		time.Sleep(time.Duration(attempt+1) * time.Millisecond)
	}
	return "", fmt.Errorf("could not allocate number for sequence %q after %d attempts", name, sequenceAllocRetries)
}
