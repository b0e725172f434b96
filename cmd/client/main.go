// The client binary demonstrates a full storefront session against a
// running server: register, login, browse the catalog, fill the cart and
// check out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/patric-chuzhbe/storefront/internal/cart"
	"github.com/patric-chuzhbe/storefront/internal/client"
	"github.com/patric-chuzhbe/storefront/internal/models"
)

func main() {
	serverURL := flag.String("s", "http://localhost:8080", "base URL of the storefront server")
	username := flag.String("u", "", "username to register and log in with")
	password := flag.String("p", "", "password for the account")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatalln("both -u and -p are required")
	}

	if err := run(context.Background(), *serverURL, *username, *password); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, serverURL, username, password string) error {
	api := client.New(serverURL)

	err := api.Register(ctx, models.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil && !strings.Contains(err.Error(), "User already exists") {
		return fmt.Errorf("register: %w", err)
	}

	userInfo, err := api.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Printf("logged in as %s (%d orders so far)\n", userInfo.Username, len(userInfo.Orders))

	products, err := api.Products(ctx)
	if err != nil {
		return fmt.Errorf("products: %w", err)
	}
	if len(products) == 0 {
		return fmt.Errorf("the catalog is empty, nothing to order")
	}
	for _, p := range products {
		fmt.Printf("  %s\t%s\t%.2f\n", p.ID, p.Name, p.Price)
	}

	basket := cart.New(api)
	basket.Add(products[0])
	basket.Increase(products[0].ID)
	if len(products) > 1 {
		basket.Add(products[1])
	}
	fmt.Printf("cart: %d lines, total %.2f\n", basket.Len(), basket.Total())

	placed, err := basket.Checkout(ctx)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	fmt.Printf("order %s placed, total %.2f\n", placed.ID, placed.Total)

	orders, err := api.Orders(ctx)
	if err != nil {
		return fmt.Errorf("orders: %w", err)
	}
	fmt.Printf("order history now holds %d orders\n", len(orders))

	return nil
}
