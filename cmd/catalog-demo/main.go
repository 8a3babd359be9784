// Command catalog-demo walks a file-backed catalog through add, update,
// delete and lookup, logging the catalog after each step.
package main

import (
	"context"
	"flag"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/pkg/kit"
)

func main() {
	path := flag.String("file", "productos.json", "catalog file")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log, err := kit.NewLogger("catalog-demo", *level)
	if err != nil {
		zap.NewExample().Fatal("build logger failed", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), catalog.NewFileStorage(*path), log); err != nil {
		log.Fatal("demo failed", zap.Error(err))
	}
}

func run(ctx context.Context, storage catalog.Storage, log *zap.Logger) error {
	c := catalog.New(storage, log)
	if err := c.Load(ctx); err != nil {
		log.Warn("continuing with an empty catalog", zap.Error(err))
	}

	log.Info("initial products", zap.Any("products", c.List()))

	for _, d := range drafts() {
		// The last two drafts are rejected; Add logs why.
		if _, err := c.Add(ctx, d); !handled(err) {
			return err
		}
	}
	log.Info("products added", zap.Any("products", c.List()))

	if _, err := c.Update(ctx, 1, catalog.Patch{
		Description: catalog.Ptr("Arroz pregraneado paquete 1 kilo"),
		Price:       catalog.Ptr(150.0),
	}); !handled(err) {
		return err
	}
	log.Info("after update", zap.Any("products", c.List()))

	if err := c.Delete(ctx, 5); !handled(err) {
		return err
	}
	log.Info("after delete", zap.Any("products", c.List()))

	if p, ok := c.Get(1); ok {
		log.Info("product 1", zap.Any("product", p))
	} else {
		log.Info("product 1 not found")
	}
	return nil
}

// handled reports whether err is nil or a catalog outcome the store has
// already logged and recovered from.
func handled(err error) bool {
	return err == nil ||
		errors.Is(err, catalog.ErrValidation) ||
		errors.Is(err, catalog.ErrDuplicateCode) ||
		errors.Is(err, catalog.ErrNotFound) ||
		errors.Is(err, catalog.ErrStorageWrite)
}

func drafts() []catalog.Draft {
	return []catalog.Draft{
		{Title: "ARROZ", Description: "Arroz paquete 1 kilo", Price: catalog.Ptr(100.0), Thumbnail: "001.jpg", Code: "arroz123", Stock: catalog.Ptr(35)},
		{Title: "LECHE", Description: "Leche natural botella 1 litro", Price: catalog.Ptr(200.0), Thumbnail: "002.jpg", Code: "leche123", Stock: catalog.Ptr(25)},
		{Title: "HARINA", Description: "Harina de trigo envase 1 kilo", Price: catalog.Ptr(300.0), Thumbnail: "003.jpg", Code: "harina123", Stock: catalog.Ptr(45)},
		{Title: "CEREAL", Description: "Cereal avena caja 400 gramos", Price: catalog.Ptr(400.0), Thumbnail: "004.jpg", Code: "cereal123", Stock: catalog.Ptr(15)},
		{Title: "CARNE", Description: "Lomo porcionado 1,5 kilos", Price: catalog.Ptr(500.0), Thumbnail: "005.jpg", Code: "carne123", Stock: catalog.Ptr(55)},
		// Missing stock.
		{Title: "ACEITE", Description: "Aceite de Oliva, botella 1 litro", Price: catalog.Ptr(200.0), Thumbnail: "006.jpg", Code: "aceite123"},
		// Reuses cereal123.
		{Title: "TOMATE", Description: "Tomate grande kilo", Price: catalog.Ptr(200.0), Thumbnail: "007.jpg", Code: "cereal123", Stock: catalog.Ptr(515)},
	}
}
