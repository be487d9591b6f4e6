package adjust

import (
	"reflect"
	"testing"

	"github.com/use-agent/variantsync/driver"
)

func TestStrategyMemory_Order(t *testing.T) {
	m := NewStrategyMemory()
	base := driver.DefaultStrategies

	if got := m.Order(base); !reflect.DeepEqual(got, base) {
		t.Errorf("empty memory Order() = %v, want %v", got, base)
	}

	m.Set(driver.StrategyPositional)
	want := []driver.Strategy{
		driver.StrategyPositional,
		driver.StrategyCurrencyPrefixed,
		driver.StrategyLabeled,
		driver.StrategyExploratory,
	}
	if got := m.Order(base); !reflect.DeepEqual(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(base, driver.DefaultStrategies) {
		t.Error("Order() modified its input")
	}

	m.Delete()
	if m.Get() != "" {
		t.Errorf("Get() after Delete = %q, want empty", m.Get())
	}
	if m.Wins(driver.StrategyPositional) != 1 {
		t.Errorf("Wins() = %d, want 1", m.Wins(driver.StrategyPositional))
	}
}
