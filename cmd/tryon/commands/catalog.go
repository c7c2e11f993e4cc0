package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
)

// ProductListAction prints the catalog.
func ProductListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	products, err := appCtx.Client.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	category := strings.TrimSpace(cmd.String("category"))

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Category", "Price")
	for _, p := range products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		table.Append(p.ID, p.Name, p.Category, fmt.Sprintf("%.2f", p.Price))
	}
	return table.Render()
}

// ProductShowAction prints one product.
func ProductShowAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	p, err := appCtx.Client.Product(ctx, cmd.String("id"))
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("ID", p.ID)
	table.Append("Name", p.Name)
	if p.SKU != "" {
		table.Append("SKU", p.SKU)
	}
	table.Append("Category", p.Category)
	table.Append("Price", fmt.Sprintf("%.2f", p.Price))
	if len(p.Sizes) > 0 {
		table.Append("Sizes", strings.Join(p.Sizes, ", "))
	}
	if len(p.Colors) > 0 {
		table.Append("Colors", strings.Join(p.Colors, ", "))
	}
	if p.ImageURL != "" {
		table.Append("Image", p.ImageURL)
	}
	return table.Render()
}

// JobListAction prints the backend job history.
func JobListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	jobs, err := appCtx.Client.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Job", "Status", "Product", "Created")
	for _, j := range jobs {
		table.Append(j.ID, string(j.Status()), j.SourceProductID, j.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return table.Render()
}

// JobStatusAction prints a single job snapshot.
func JobStatusAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	job, err := appCtx.Client.JobStatus(ctx, cmd.String("job"))
	if err != nil {
		return fmt.Errorf("job status: %w", err)
	}
	printJob(job, appCtx.Config.DefaultLocale)
	return nil
}

func printJob(job *domain.TryOnJob, locale string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Job", job.ID)
	table.Append("Status", string(job.Status()))
	table.Append("Message", tryon.StatusMessage(locale, job))
	if url, ok := job.ResultURL(); ok {
		table.Append("Result", url)
	}
	if job.Estimate() > 0 {
		table.Append("Estimate", fmt.Sprintf("%ds", job.Estimate()))
	}
	_ = table.Render()
}
