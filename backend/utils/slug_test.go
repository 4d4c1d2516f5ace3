package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello World"))
	assert.Equal(t, "closing-the-deal", Slugify("Closing the Deal!"))
	assert.Equal(t, "week-1-intro", Slugify("  Week 1:  Intro  "))
	assert.Equal(t, "", Slugify("!!!"))
	assert.Equal(t, "a-b", Slugify("a --- b"))
}
