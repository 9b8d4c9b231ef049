package main

import (
	"context"
	"fmt"

	"animeshop-be/internal/config"
	"animeshop-be/internal/product"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var keepExisting bool

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Replace the product catalog with the starter collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, _ *config.Config, database *mongo.Database) error {
			n, err := seedProducts(ctx, product.NewRepository(database), starterCatalog(), !keepExisting)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully seeded %d products\n", n)
			return nil
		})
	},
}

func init() {
	productsCmd.Flags().BoolVar(&keepExisting, "keep", false, "insert without clearing existing products")
}

type catalogWriter interface {
	DeleteAll(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, products []product.Product) (int, error)
}

func seedProducts(ctx context.Context, repo catalogWriter, products []product.Product, replace bool) (int, error) {
	if replace {
		if _, err := repo.DeleteAll(ctx); err != nil {
			return 0, fmt.Errorf("clear products: %w", err)
		}
	}
	n, err := repo.InsertMany(ctx, products)
	if err != nil {
		return 0, fmt.Errorf("insert products: %w", err)
	}
	return n, nil
}

func rating(v float64) *float64 { return &v }

// starterCatalog is the launch collection: three items in each of desktop,
// figurines, plushies and clothing.
func starterCatalog() []product.Product {
	return []product.Product{
		{
			Name: "Blue Lock Mouse Pad", Subtitle: "Sports Anime Collection", Price: 400,
			Image:       "/assets/desktop/mousepad1.jpg",
			Description: "Extended mouse pad featuring Nagi from Blue Lock.",
			Category:    "desktop", Subcategory: "mousepad", InStock: true, Rating: rating(4.5),
		},
		{
			Name: "My Hero Academia Mouse Pad", Subtitle: "Hero Desk", Price: 350,
			Image:       "/assets/desktop/mousepad2.jpg",
			Description: "LED desk lamp with My Hero Academia theme. Three brightness settings and USB port.",
			Category:    "desktop", Subcategory: "mousepad", InStock: true, Rating: rating(4.6),
		},
		{
			Name: "Anime Themed Mouse Pad", Subtitle: "Otaku Essentials", Price: 300,
			Image:       "/assets/desktop/mousepad3.jpg",
			Description: "RGB mechanical keyboard with anime-themed keycaps. Blue switches for tactile feedback.",
			Category:    "desktop", Subcategory: "mousepad", InStock: true, Rating: rating(4.8),
		},
		{
			Name: "Roronoa Zoro Figurine", Subtitle: "One Piece", Price: 150,
			Image:       "/assets/figurines/figure1.jpg",
			Description: "Detailed Roronoa Zoro action figure in combat pose. Highly articulated with multiple accessories.",
			Category:    "figurines", Subcategory: "figures", InStock: true, Rating: rating(4.7),
		},
		{
			Name: "Uraraka Floating Figurine", Subtitle: "My Hero Academia", Price: 250,
			Image:       "/assets/figurines/figure2.jpg",
			Description: "Premium Dragon Ball Z collectible statue featuring Goku in Super Saiyan form.",
			Category:    "figurines", Subcategory: "figures", InStock: true, Rating: rating(4.9),
		},
		{
			Name: "Mandate Ackerman Figure", Subtitle: "Attack on Titan", Price: 450,
			Image:       "/assets/figurines/figure3.jpg",
			Description: "Attack on Titan's Mikasa Ackerman in 3D maneuver gear. Detailed paintwork and sculpting.",
			Category:    "figurines", Subcategory: "figures", InStock: true, Rating: rating(4.5),
		},
		{
			Name: "Totoro Plush", Subtitle: "Ghibli Collection", Price: 250,
			Image:       "/assets/plushies/plush1.jpg",
			Description: "Soft and huggable Totoro plush toy from Studio Ghibli's My Neighbor Totoro.",
			Category:    "plushies", Subcategory: "character", InStock: true, Rating: rating(4.9),
		},
		{
			Name: "Gojo Plushie", Subtitle: "Jujutsu Kaisen", Price: 350,
			Image:       "/assets/plushies/plush2.jpg",
			Description: "Official Pokémon Pikachu plush toy. Super soft material, perfect for Pokémon fans.",
			Category:    "plushies", Subcategory: "character", InStock: true, Rating: rating(4.8),
		},
		{
			Name: "Kiki's Black Cat Jiji", Subtitle: "Ghibli Collection", Price: 400,
			Image:       "/assets/plushies/plush3.jpg",
			Description: "Adorable Jiji plush from Kiki's Delivery Service. Made with premium materials.",
			Category:    "plushies", Subcategory: "character", InStock: true, Rating: rating(4.7),
		},
		{
			Name: "My Hero Academia T-Shirt", Subtitle: "Plus Ultra Apparel", Price: 200,
			Image:       "/assets/clothing/clothing1.jpg",
			Description: "100% cotton t-shirt featuring the Class 1-A heroes. Available in multiple sizes.",
			Category:    "clothing", Subcategory: "t-shirts", InStock: true, Rating: rating(4.6),
			Sizes: []string{"S", "M", "L", "XL", "XXL"},
		},
		{
			Name: "One Piece Straw Hat Hoodie", Subtitle: "Grand Line Collection", Price: 350,
			Image:       "/assets/clothing/clothing2.jpg",
			Description: "Comfortable hoodie with Straw Hat Pirates logo. Perfect for anime fans and casual wear.",
			Category:    "clothing", Subcategory: "t-shirts", InStock: true, Rating: rating(4.8),
			Sizes: []string{"S", "M", "L", "XL"},
		},
		{
			Name: "Demon Slayer Jacket", Subtitle: "Hashira Designs", Price: 420,
			Image:       "/assets/clothing/clothing3.jpg",
			Description: "Stylish jacket inspired by Demon Slayer Corps uniform. Water-resistant material.",
			Category:    "clothing", Subcategory: "t-shirts", InStock: true, Rating: rating(4.7),
			Sizes: []string{"M", "L", "XL"},
		},
	}
}
