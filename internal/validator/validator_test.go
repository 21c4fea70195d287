package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type categoryRequest struct {
	Category string `json:"category" validate:"required,is-category"`
}

func TestCategoryRule(t *testing.T) {
	v := New()

	for _, category := range []string{"animal-health", "Animal-Health", "space debris", "niños"} {
		assert.NoError(t, v.Validate(&categoryRequest{Category: category}), category)
	}

	cases := map[string]string{
		"blank":         "   ",
		"too long":      strings.Repeat("a", 65),
		"control chars": "animal\nhealth",
	}
	for name, category := range cases {
		t.Run(name, func(t *testing.T) {
			err := v.Validate(&categoryRequest{Category: category})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Errors, "category")
		})
	}
}

type statusRequest struct {
	Status       string  `json:"status" validate:"required,is-notification-status"`
	ResponseType *string `json:"responseType" validate:"omitempty,is-response-type"`
}

func TestStatusRules(t *testing.T) {
	v := New()
	interested := "interested"
	maybe := "maybe"

	assert.NoError(t, v.Validate(&statusRequest{Status: "read"}))
	assert.NoError(t, v.Validate(&statusRequest{Status: "responded", ResponseType: &interested}))

	err := v.Validate(&statusRequest{Status: "archived", ResponseType: &maybe})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Must be one of: sent, read, responded", verr.Errors["status"])
	assert.Contains(t, verr.Errors, "responseType")
}
