package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageQuery_Normalized(t *testing.T) {
	cases := []struct {
		in, want PageQuery
	}{
		{PageQuery{}, PageQuery{Limit: DefaultPageSize}},
		{PageQuery{Limit: 5, Offset: 10}, PageQuery{Limit: 5, Offset: 10}},
		{PageQuery{Limit: 500, Offset: -3}, PageQuery{Limit: MaxPageSize}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.Normalized())
	}
	assert.Equal(t, PageResponse{Limit: 5, Offset: 10}, PageQuery{Limit: 5, Offset: 10}.Response())
}
