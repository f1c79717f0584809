package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortKeys_OrdenaYDeduplica(t *testing.T) {
	in := []string{UserKey(3), FarmerKey(7), UserKey(3), PhoneKey("13800138001")}
	got := SortKeys(in)
	assert.Equal(t, []string{"farmer:7", "phone:13800138001", "user:3"}, got)
	assert.Len(t, in, 4, "no debe modificar la entrada")
}
