package orders

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumberFormat(t *testing.T) {
	number := NewOrderNumber(fixedNow)

	prefix := fmt.Sprintf("ORD-%d-", fixedNow.UnixMilli())
	assert.True(t, strings.HasPrefix(number, prefix), number)
	assert.Len(t, strings.TrimPrefix(number, prefix), 6)
	assert.Equal(t, strings.ToUpper(number), number)
}
