package library_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arkadyvb/libris/library"
)

func Test_FormatLocation_When_AllSegmentsAreKnown(t *testing.T) {
	// act
	location := library.FormatLocation("Fiction", "Rack A", "3")

	// assert
	assert.Equal(t, "Fiction, Rack A, shelf 3", location)
}

func Test_FormatLocation_When_NoSegmentIsKnown(t *testing.T) {
	// act
	location := library.FormatLocation("", "", "")

	// assert
	assert.Equal(t, "Main Warehouse, In Warehouse, In Warehouse", location)
}

func Test_FormatLocation_When_OnlyTheSectionIsKnown(t *testing.T) {
	// act
	location := library.FormatLocation("Fiction", "", "")

	// assert
	assert.Equal(t, "Fiction, In Warehouse, In Warehouse", location)
}

func Test_FormatPersonName_When_MiddleNameIsMissing(t *testing.T) {
	// act
	name := library.FormatPersonName("Smith", "Anna", "")

	// assert
	assert.Equal(t, "Smith Anna", name)
}

func Test_FormatPersonName_When_AllPartsArePresent(t *testing.T) {
	// act
	name := library.FormatPersonName("Smith", "Anna", "Marie")

	// assert
	assert.Equal(t, "Smith Anna Marie", name)
}
