//go:build ignore

// Package main generates a synthetic article directory for load testing.
// Usage: go run scripts/generate-corpus.go -articles 5000 -output testdata/corpus
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numArticles = flag.Int("articles", 1000, "Number of articles to generate")
	outputDir   = flag.String("output", "testdata/corpus", "Output directory")
	seed        = flag.Int64("seed", 42, "Random seed for reproducibility")
	broken      = flag.Float64("broken", 0.01, "Fraction of articles with an invalid header")
)

var (
	subjects = []string{
		"Магний", "Цинк", "Железо", "Йод", "Селен", "Кальций", "Калий", "Хром",
		"Витамин D", "Витамин C", "Витамин B12", "Фолиевая кислота", "Омега-3",
		"Коэнзим Q10", "Мелатонин", "Куркумин", "Лютеин", "Ёж", "Ежевика",
	}
	qualifiers = []string{
		"для сна", "при стрессе", "для сердца", "для иммунитета", "для кожи",
		"для суставов", "при усталости", "для спортсменов", "для детей",
	}
	categories = []string{
		"Минералы", "Витамины", "Жирные кислоты", "Антиоксиданты", "Гормоны", "Ягоды",
	}
	tags = []string{
		"сон", "стресс", "сердце", "иммунитет", "кожа", "суставы", "энергия",
		"мозг", "зрение", "печень", "щитовидная железа", "беременность",
	}
	aliases = []string{"magnesium", "zinc", "iron", "iodine", "vitamin", "omega", "melatonin"}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *numArticles; i++ {
		name := filepath.Join(*outputDir, fmt.Sprintf("article-%05d.mdx", i))
		if err := os.WriteFile(name, []byte(article(rng, i)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Generated %d articles in %s\n", *numArticles, *outputDir)
}

func article(rng *rand.Rand, i int) string {
	title := fmt.Sprintf("%s %s", pick(rng, subjects), pick(rng, qualifiers))
	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %q\n", title)
	if rng.Float64() >= *broken {
		fmt.Fprintf(&sb, "category: %s\n", pick(rng, categories))
	}
	fmt.Fprintf(&sb, "tags: [%s]\n", strings.Join(sample(rng, tags, rng.Intn(4)), ", "))
	if rng.Intn(3) == 0 {
		fmt.Fprintf(&sb, "aliases: [%s]\n", pick(rng, aliases))
	}
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "# %s\n\nСтатья номер %d.\n", title, i)
	return sb.String()
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

func sample(rng *rand.Rand, from []string, n int) []string {
	idx := rng.Perm(len(from))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = from[j]
	}
	return out
}
