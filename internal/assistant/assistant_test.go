package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/postcardmijo/food/internal/models"
)

type fakeModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func text(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	require.Len(t, msg.Parts, 1)
	part, ok := msg.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

var testMeals = []models.Meal{
	{ID: "2", Title: "Cheeseburger", Protein: 25, Carbs: 30, Fat: 20, Date: "2024-03-10"},
	{ID: "1", Title: "Oatmeal", Protein: 10, Carbs: 5, Fat: 5, Date: "2024-03-09"},
}

var testMenu = &models.Menu{
	Date: "2024-03-10",
	Halls: map[string]models.Hall{
		"dining-hall-1": {ID: "dining-hall-1", Name: "Bolton", Meals: map[string]models.Stations{
			"lunch": {"Grill": {{Name: "Cheeseburger", Description: "Beef patty"}}},
		}},
	},
}

func TestAskBuildsContext(t *testing.T) {
	model := &fakeModel{reply: "Try the salad."}
	a := New(model, DefaultOptions())

	reply, err := a.Ask(context.Background(), "", "What should I eat?", testMeals, testMenu)
	require.NoError(t, err)
	assert.Equal(t, "Try the salad.", reply.Text)
	assert.NotEmpty(t, reply.SessionID)

	require.Len(t, model.calls, 1)
	messages := model.calls[0]
	require.Len(t, messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, messages[0].Role)
	system := text(t, messages[0])
	assert.Contains(t, system, "Dining Hall: Bolton")
	assert.Contains(t, system, "- Cheeseburger: 25g protein, 30g carbs, 20g fat (400 kcal)")
	assert.Contains(t, system, "Day total: 10g protein, 5g carbs, 5g fat, 105 kcal")
	assert.Equal(t, llms.ChatMessageTypeHuman, messages[1].Role)
	assert.Equal(t, "What should I eat?", text(t, messages[1]))
}

func TestAskKeepsSessionHistory(t *testing.T) {
	model := &fakeModel{reply: "Noted."}
	a := New(model, DefaultOptions())
	ctx := context.Background()

	first, err := a.Ask(ctx, "s1", "I had pizza", nil, nil)
	require.NoError(t, err)
	_, err = a.Ask(ctx, first.SessionID, "What did I say?", nil, nil)
	require.NoError(t, err)

	second := model.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, "I had pizza", text(t, second[1]))
	assert.Equal(t, llms.ChatMessageTypeAI, second[2].Role)
	assert.Equal(t, "Noted.", text(t, second[2]))

	a.Reset("s1")
	_, err = a.Ask(ctx, "s1", "Fresh start", nil, nil)
	require.NoError(t, err)
	assert.Len(t, model.calls[2], 2)
}

func TestAskPropagatesModelErrors(t *testing.T) {
	a := New(&fakeModel{err: errors.New("quota exceeded")}, DefaultOptions())

	_, err := a.Ask(context.Background(), "", "hi", nil, nil)
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = a.Ask(context.Background(), "", "", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestMealContextBoundsAndGroups(t *testing.T) {
	latest := MealContext(testMeals, 1)
	assert.Contains(t, latest, "1 most recent")
	assert.Contains(t, latest, "Cheeseburger")
	assert.NotContains(t, latest, "Oatmeal")

	all := MealContext(testMeals, 10)
	assert.Less(t, strings.Index(all, "2024-03-09"), strings.Index(all, "2024-03-10"))

	assert.Equal(t, "The user has not logged any meals yet.", MealContext(nil, 10))
}

func TestNewModelRejectsUnknownProvider(t *testing.T) {
	_, err := NewModel(ProviderConfig{Provider: "carrier-pigeon", APIKey: "x"})
	assert.ErrorContains(t, err, "unsupported model provider")
}

func TestNewModelRequiresKey(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	_, err := NewModel(ProviderConfig{Provider: GitHubModelsProvider, Model: "gpt-4o-mini"})
	assert.ErrorContains(t, err, "no API key")
}

func TestAskSerializesTurnsWithinASession(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	opts := DefaultOptions()
	opts.MemoryWindow = 100
	a := New(model, opts)
	ctx := context.Background()

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Ask(ctx, "shared", fmt.Sprintf("question %d", i), testMeals, testMenu)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.Len(t, model.calls, turns)
	// every turn sees the complete history of the turns before it
	lengths := make(map[int]bool)
	for _, call := range model.calls {
		lengths[len(call)] = true
	}
	for i := 0; i < turns; i++ {
		assert.True(t, lengths[2+2*i], "no turn with %d prior exchanges", i)
	}
}

func TestSessionsAreBounded(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	opts := DefaultOptions()
	opts.MaxSessions = 2
	a := New(model, opts)
	ctx := context.Background()

	clock := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for _, id := range []string{"a", "b", "a", "c"} {
		_, err := a.Ask(ctx, id, "hi", nil, nil)
		require.NoError(t, err)
	}

	assert.Len(t, a.sessions, 2)
	assert.Contains(t, a.sessions, "a")
	assert.Contains(t, a.sessions, "c")
	assert.NotContains(t, a.sessions, "b")

	a.Reset("a")
	assert.NotContains(t, a.sessions, "a")
}
