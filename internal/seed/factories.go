package seed

import (
	"fmt"
	"strings"
	"unicode"

	"recipebox/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Categories is the built-in category catalogue.
var Categories = []service.CategoryInput{
	{Name: "Breakfast", Slug: "breakfast"},
	{Name: "Lunch", Slug: "lunch"},
	{Name: "Dinner", Slug: "dinner"},
	{Name: "Dessert", Slug: "dessert"},
	{Name: "Snacks", Slug: "snacks"},
	{Name: "Vegetarian", Slug: "vegetarian"},
	{Name: "Quick & Easy", Slug: "quick-easy"},
	{Name: "Baking", Slug: "baking"},
}

// factory builds fake domain inputs from a seeded faker so runs with the same
// seed produce the same data.
type factory struct {
	faker *gofakeit.Faker
}

func newFactory(seed int64) *factory {
	return &factory{faker: gofakeit.New(seed)}
}

// username returns a name that satisfies the username rule; n keeps it unique.
func (f *factory) username(n int) string {
	base := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToLower(r)
		}
		return -1
	}, f.faker.FirstName())
	if base == "" {
		base = "cook"
	}
	suffix := fmt.Sprintf("_%d", n)
	if len(base)+len(suffix) > 20 {
		base = base[:20-len(suffix)]
	}
	return base + suffix
}

func (f *factory) register(n int) service.RegisterInput {
	username := f.username(n)
	return service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: DefaultPassword,
	}
}

func (f *factory) bio() string {
	bio := f.faker.Sentence(12)
	if len(bio) > 280 {
		bio = bio[:280]
	}
	return bio
}

// recipe builds a recipe for authorID. Roughly one in ten is private.
func (f *factory) recipe(authorID uint, categoryIDs []uint) service.CreateRecipeInput {
	dishes := []func() string{
		f.faker.Breakfast, f.faker.Lunch, f.faker.Dinner, f.faker.Dessert, f.faker.Snack,
	}
	title := dishes[f.faker.Number(0, len(dishes)-1)]()
	if len(title) > 120 {
		title = title[:120]
	}

	ingredients := make([]string, f.faker.Number(3, 8))
	for i := range ingredients {
		var item string
		if f.faker.Bool() {
			item = f.faker.Vegetable()
		} else {
			item = f.faker.Fruit()
		}
		ingredients[i] = fmt.Sprintf("%d %s %s", f.faker.Number(1, 4),
			f.faker.RandomString([]string{"cup", "tbsp", "tsp", "piece", "handful"}), strings.ToLower(item))
	}

	steps := make([]string, f.faker.Number(2, 6))
	for i := range steps {
		steps[i] = f.faker.Sentence(f.faker.Number(6, 14))
	}

	isPublic := f.faker.Number(1, 10) > 1
	return service.CreateRecipeInput{
		AuthorID:    authorID,
		Title:       title,
		Description: f.faker.Paragraph(1, 3, 12, " "),
		Ingredients: ingredients,
		Steps:       steps,
		CategoryIDs: f.pick(categoryIDs, f.faker.Number(0, 3)),
		IsPublic:    &isPublic,
	}
}

// pick returns up to n distinct ids from ids.
func (f *factory) pick(ids []uint, n int) []uint {
	if n > len(ids) {
		n = len(ids)
	}
	shuffled := append([]uint(nil), ids...)
	f.faker.ShuffleAnySlice(shuffled)
	return shuffled[:n]
}

func (f *factory) chance(percent int) bool {
	return f.faker.Number(1, 100) <= percent
}

func (f *factory) rating() int {
	// skew towards favourable ratings
	weights := []int{1, 2, 3, 3, 4, 4, 4, 5, 5, 5}
	return weights[f.faker.Number(0, len(weights)-1)]
}
