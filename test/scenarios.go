// Package test holds end-to-end scenarios run against a live viewer server.
package test

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spyice/room-generator/internal/testclient"
)

// uniqueCounter provides unique client names within a single run
var uniqueCounter uint64

func uniqueName(base string) string {
	return fmt.Sprintf("%s%d", base, atomic.AddUint64(&uniqueCounter, 1))
}

// Verbose controls whether detailed logging is shown during tests
var Verbose = false

// Options configures one run against a live server.
type Options struct {
	// Addr is the server's telnet viewer address.
	Addr string
	// BaseSeed offsets every seed a scenario regenerates.
	BaseSeed int64
	// MapTimeout bounds one regeneration round trip.
	MapTimeout time.Duration
}

// DefaultMapTimeout is used when Options.MapTimeout is zero.
const DefaultMapTimeout = 10 * time.Second

func (o Options) seed(offset int64) int64 { return o.BaseSeed + offset }

func (o Options) timeout() time.Duration {
	if o.MapTimeout <= 0 {
		return DefaultMapTimeout
	}
	return o.MapTimeout
}

// TestResult represents the result of a test
type TestResult struct {
	Name    string
	Passed  bool
	Message string
}

func logAction(testName, action string) {
	if Verbose {
		fmt.Printf("  [%s] %s\n", testName, action)
	}
}

func logResult(testName string, success bool, detail string) {
	if Verbose {
		status := "OK"
		if !success {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %s: %s\n", testName, status, detail)
	}
}

func pass(name, msg string) TestResult { return TestResult{Name: name, Passed: true, Message: msg} }
func fail(name, msg string) TestResult { return TestResult{Name: name, Passed: false, Message: msg} }

// regenerate sends the command and waits for the map header of seed.
func regenerate(o Options, client *testclient.TestClient, seed int64) (string, []string, bool) {
	client.ClearMessages()
	client.SendCommand(fmt.Sprintf("regenerate %d", seed))
	header := fmt.Sprintf("%s%d:", testclient.HeaderPrefix, seed)
	if !client.WaitForMessage(header, o.timeout()) {
		return "", nil, false
	}
	// Rows follow the header in the same write.
	time.Sleep(100 * time.Millisecond)
	h, rows := client.LastMap()
	return h, rows, true
}

// TestInitialMap checks a new viewer receives a map right away.
func TestInitialMap(o Options) TestResult {
	name := "Initial Map"
	logAction(name, "connecting")

	client, err := testclient.NewTestClient(uniqueName("viewer"), o.Addr)
	if err != nil {
		return fail(name, err.Error())
	}
	defer client.Close()

	header, rows := client.LastMap()
	logResult(name, header != "", header)
	if header == "" {
		return fail(name, "no map header received")
	}
	return pass(name, fmt.Sprintf("%q with %d rows", header, len(rows)))
}

// TestRegenerateSeed checks "regenerate <seed>" publishes that seed.
func TestRegenerateSeed(o Options) TestResult {
	name := "Regenerate Seed"
	client, err := testclient.NewTestClient(uniqueName("viewer"), o.Addr)
	if err != nil {
		return fail(name, err.Error())
	}
	defer client.Close()

	seed := o.seed(1234)
	logAction(name, fmt.Sprintf("regenerate %d", seed))
	header, rows, ok := regenerate(o, client, seed)
	if !ok {
		return fail(name, fmt.Sprintf("no map for seed %d", seed))
	}
	if len(rows) == 0 {
		return fail(name, fmt.Sprintf("map for seed %d has no rows", seed))
	}
	return pass(name, header)
}

// TestDeterminism checks the same seed renders the same map twice.
func TestDeterminism(o Options) TestResult {
	name := "Determinism"
	client, err := testclient.NewTestClient(uniqueName("viewer"), o.Addr)
	if err != nil {
		return fail(name, err.Error())
	}
	defer client.Close()

	seed := o.seed(77)
	_, first, ok := regenerate(o, client, seed)
	if !ok {
		return fail(name, "first regeneration timed out")
	}
	if _, _, ok := regenerate(o, client, seed+1); !ok {
		return fail(name, "intermediate regeneration timed out")
	}
	_, second, ok := regenerate(o, client, seed)
	if !ok {
		return fail(name, "second regeneration timed out")
	}

	same := slices.Equal(first, second)
	logResult(name, same, fmt.Sprintf("%d rows vs %d rows", len(first), len(second)))
	if !same {
		return fail(name, fmt.Sprintf("seed %d produced different maps", seed))
	}
	return pass(name, fmt.Sprintf("seed %d reproduced %d rows", seed, len(first)))
}

// TestBroadcast checks a regeneration reaches every connected viewer.
func TestBroadcast(o Options) TestResult {
	name := "Broadcast"
	a, err := testclient.NewTestClient(uniqueName("viewer"), o.Addr)
	if err != nil {
		return fail(name, err.Error())
	}
	defer a.Close()
	b, err := testclient.NewTestClient(uniqueName("viewer"), o.Addr)
	if err != nil {
		return fail(name, err.Error())
	}
	defer b.Close()

	seed := o.seed(4242)
	b.ClearMessages()
	if _, _, ok := regenerate(o, a, seed); !ok {
		return fail(name, "requesting viewer got no map")
	}
	if !b.WaitForMessage(fmt.Sprintf("%s%d:", testclient.HeaderPrefix, seed), o.timeout()) {
		return fail(name, "second viewer did not receive the broadcast")
	}
	return pass(name, fmt.Sprintf("both viewers received seed %d", seed))
}

// TestBadCommands checks malformed input gets an error and the session survives.
func TestBadCommands(o Options) TestResult {
	name := "Bad Commands"
	client, err := testclient.NewTestClient(uniqueName("viewer"), o.Addr)
	if err != nil {
		return fail(name, err.Error())
	}
	defer client.Close()

	for _, cmd := range []string{"dance", "regenerate abc", "regenerate 1 2"} {
		client.ClearMessages()
		logAction(name, cmd)
		client.SendCommand(cmd)
		if !client.WaitForMessage("Error:", 2*time.Second) {
			return fail(name, fmt.Sprintf("no error for %q", cmd))
		}
	}

	client.ClearMessages()
	client.SendCommand("map")
	if !client.WaitForMessage(testclient.HeaderPrefix, 2*time.Second) {
		return fail(name, "session did not survive bad commands")
	}
	return pass(name, "errors reported, session intact")
}

// Scenario is one named end-to-end check.
type Scenario struct {
	Name string
	Run  func(Options) TestResult
}

// Scenarios lists every check in run order.
var Scenarios = []Scenario{
	{"Initial Map", TestInitialMap},
	{"Regenerate Seed", TestRegenerateSeed},
	{"Determinism", TestDeterminism},
	{"Broadcast", TestBroadcast},
	{"Bad Commands", TestBadCommands},
}

// Select returns the scenarios whose name matches filter. A nil filter
// selects all of them.
func Select(filter *regexp.Regexp) []Scenario {
	if filter == nil {
		return Scenarios
	}
	var out []Scenario
	for _, sc := range Scenarios {
		if filter.MatchString(sc.Name) {
			out = append(out, sc)
		}
	}
	return out
}

// RunAllTests runs the selected scenarios against o.Addr.
func RunAllTests(o Options, filter *regexp.Regexp) []TestResult {
	var results []TestResult
	for _, sc := range Select(filter) {
		results = append(results, sc.Run(o))
	}
	return results
}

// PrintResults prints a summary table of results.
func PrintResults(results []TestResult) {
	passed := 0
	failed := 0

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Integration Test Results")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		} else {
			passed++
		}
		fmt.Printf("[%s] %s: %s\n", status, r.Name, r.Message)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
	fmt.Println(strings.Repeat("-", 60))
}
