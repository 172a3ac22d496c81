package cart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
)

var opts = godog.Options{
	Output:      colors.Colored(os.Stdout),
	Format:      "progress",
	Paths:       []string{"features"},
	Randomize:   0,
	Concurrency: 1,
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options:             &opts,
	}

	if suite.Run() != 0 {
		t.Fail()
	}
}

// lifecycleContext holds one scenario's machine and collaborators
type lifecycleContext struct {
	gw      *fakeGateway
	store   *memoryStore
	machine *Machine
	lastErr error
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	lc := &lifecycleContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		lc.gw = newFakeGateway()
		lc.store = &memoryStore{}
		lc.machine = New(lc.gw, lc.store)
		lc.lastErr = nil
		return ctx, nil
	})

	ctx.Step(`^no cart id is stored$`, lc.noCartIDStored)
	ctx.Step(`^the stored cart id is "([^"]*)"$`, lc.storedCartID)
	ctx.Step(`^the gateway has cart "([^"]*)" with (\d+) of variant "([^"]*)"$`, lc.gatewayHasCart)
	ctx.Step(`^an initialized cart containing (\d+) of variant "([^"]*)"$`, lc.initializedCartContaining)
	ctx.Step(`^the gateway rejects added lines with code "([^"]*)"$`, lc.gatewayRejectsLines)
	ctx.Step(`^the cart is initialized$`, lc.cartIsInitialized)
	ctx.Step(`^I add (\d+) of variant "([^"]*)" to the cart$`, lc.addToCart)
	ctx.Step(`^(\d+) carts? should have been created$`, lc.cartsCreated)
	ctx.Step(`^the stored cart id should be "([^"]*)"$`, lc.storedCartIDShouldBe)
	ctx.Step(`^the cart should contain (\d+) items$`, lc.cartShouldContain)
	ctx.Step(`^the add should fail with user error "([^"]*)"$`, lc.addFailedWithUserError)
	ctx.Step(`^the add should fail because the cart is not initialized$`, lc.addFailedNotInitialized)
	ctx.Step(`^the cart panel should be closed$`, lc.panelClosed)
}

func (lc *lifecycleContext) noCartIDStored() error {
	lc.store.id = ""
	return nil
}

func (lc *lifecycleContext) storedCartID(id string) error {
	lc.store.id = id
	return nil
}

func (lc *lifecycleContext) gatewayHasCart(id string, qty int, variant string) error {
	lc.gw.seed(withLine(cartWith(id), variant, qty))
	return nil
}

func (lc *lifecycleContext) initializedCartContaining(qty int, variant string) error {
	if err := lc.machine.Init(context.Background()); err != nil {
		return err
	}
	if err := lc.machine.AddItem(context.Background(), variant, qty); err != nil {
		return err
	}
	lc.machine.ClosePanel()
	return nil
}

func (lc *lifecycleContext) gatewayRejectsLines(code string) error {
	lc.gw.mu.Lock()
	defer lc.gw.mu.Unlock()
	lc.gw.addErr = gateway.UserErrors{{Field: []string{"lines", "0", "merchandiseId"}, Message: "rejected", Code: code}}
	return nil
}

func (lc *lifecycleContext) cartIsInitialized() error {
	return lc.machine.Init(context.Background())
}

func (lc *lifecycleContext) addToCart(qty int, variant string) error {
	lc.lastErr = lc.machine.AddItem(context.Background(), variant, qty)
	return nil
}

func (lc *lifecycleContext) cartsCreated(n int) error {
	if create, _, _ := lc.gw.calls(); create != n {
		return fmt.Errorf("expected %d carts created, got %d", n, create)
	}
	return nil
}

func (lc *lifecycleContext) storedCartIDShouldBe(id string) error {
	if got, _ := lc.store.current(); got != id {
		return fmt.Errorf("expected stored cart id %q, got %q", id, got)
	}
	return nil
}

func (lc *lifecycleContext) cartShouldContain(n int) error {
	if got := lc.machine.ItemCount(); got != n {
		return fmt.Errorf("expected %d items, got %d", n, got)
	}
	return nil
}

func (lc *lifecycleContext) addFailedWithUserError(code string) error {
	ue, ok := gateway.AsUserErrors(lc.lastErr)
	if !ok {
		return fmt.Errorf("expected user errors, got %v", lc.lastErr)
	}
	if len(ue) == 0 || ue[0].Code != code {
		return fmt.Errorf("expected user error code %q, got %v", code, ue)
	}
	if lc.machine.Snapshot().Err == nil {
		return errors.New("error was not published in the cart state")
	}
	return nil
}

func (lc *lifecycleContext) addFailedNotInitialized() error {
	if !errors.Is(lc.lastErr, ErrNotInitialized) {
		return fmt.Errorf("expected ErrNotInitialized, got %v", lc.lastErr)
	}
	return nil
}

func (lc *lifecycleContext) panelClosed() error {
	if lc.machine.Snapshot().Open {
		return errors.New("cart panel is open")
	}
	return nil
}
