package e2e

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the consent service is running$`, tc.serviceIsRunning)

	ctx.Step(`^I opt in to "([^"]*)"$`, tc.optIn)
	ctx.Step(`^I opt out of "([^"]*)"$`, tc.optOut)
	ctx.Step(`^I reset "([^"]*)"$`, tc.reset)
	ctx.Step(`^I GET "([^"]*)"$`, tc.get)
	ctx.Step(`^I POST to "([^"]*)" with empty body$`, tc.postWithEmptyBody)

	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the consent cookie should contain "([^"]*)"$`, tc.cookieShouldContain)
	ctx.Step(`^the consent cookie should be absent$`, tc.cookieShouldBeAbsent)
	ctx.Step(`^the "([^"]*)" handler should have run "([^"]*)" (\d+) times?$`, tc.handlerShouldHaveRun)
}

func (tc *TestContext) serviceIsRunning(context.Context) error {
	if err := tc.GET("/consent"); err != nil {
		return err
	}
	return tc.responseStatusShouldBe(context.Background(), 200)
}

func (tc *TestContext) optIn(_ context.Context, topic string) error {
	return tc.POST("/consent/opt-in", map[string]string{"topic": topic})
}

func (tc *TestContext) optOut(_ context.Context, topic string) error {
	return tc.POST("/consent/opt-out", map[string]string{"topic": topic})
}

func (tc *TestContext) reset(_ context.Context, topic string) error {
	return tc.POST("/consent/reset", map[string]string{"topic": topic})
}

func (tc *TestContext) get(_ context.Context, path string) error {
	return tc.GET(path)
}

func (tc *TestContext) postWithEmptyBody(_ context.Context, path string) error {
	return tc.POST(path, map[string]any{})
}

func (tc *TestContext) responseStatusShouldBe(_ context.Context, expected int) error {
	if tc.LastResponse == nil {
		return fmt.Errorf("no response recorded")
	}
	if tc.LastResponse.StatusCode != expected {
		return fmt.Errorf("expected status %d but got %d: %s", expected, tc.LastResponse.StatusCode, tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseShouldContain(_ context.Context, text string) error {
	if !tc.ResponseContains(text) {
		return fmt.Errorf("response does not contain %q\nResponse: %s", text, tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(_ context.Context, field, expected string) error {
	actual, err := tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(actual) != expected {
		return fmt.Errorf("field %s: expected %s but got %v", field, expected, actual)
	}
	return nil
}

func (tc *TestContext) cookieShouldContain(_ context.Context, pair string) error {
	value, ok, err := tc.ConsentCookie()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("consent cookie not set")
	}
	for _, part := range strings.Split(value, ",") {
		if part == pair {
			return nil
		}
	}
	return fmt.Errorf("consent cookie %q does not contain %q", value, pair)
}

func (tc *TestContext) cookieShouldBeAbsent(context.Context) error {
	value, ok, err := tc.ConsentCookie()
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("expected no consent cookie, got %q", value)
	}
	return nil
}

func (tc *TestContext) handlerShouldHaveRun(_ context.Context, topic, slot string, times int) error {
	if tc.recorder == nil {
		return godog.ErrPending
	}
	want := topic + ":" + slot
	got := 0
	for _, call := range tc.recorder.Calls() {
		if call == want {
			got++
		}
	}
	if got != times {
		return fmt.Errorf("expected %s %d time(s), got %d (calls: %v)", want, times, got, tc.recorder.Calls())
	}
	return nil
}
