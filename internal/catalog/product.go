package catalog

// Product is a catalog record. Field order is the on-disk key order.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Thumbnail   string  `json:"thumbnail"`
	Code        string  `json:"code"`
	Stock       int     `json:"stock"`
}

// Draft is caller data for a new product. Price and Stock are pointers so a
// missing value is not mistaken for zero.
type Draft struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gt=0,finite"`
	Thumbnail   string   `json:"thumbnail" validate:"required"`
	Code        string   `json:"code" validate:"required"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
}

func (d Draft) product(id int) Product {
	return Product{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Price:       *d.Price,
		Thumbnail:   d.Thumbnail,
		Code:        d.Code,
		Stock:       *d.Stock,
	}
}

// Patch is a partial update. ID is accepted so decoded payloads round-trip,
// but it is never applied.
type Patch struct {
	ID          *int     `json:"id,omitempty"`
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string  `json:"description,omitempty" validate:"omitempty,min=1"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0,finite"`
	Thumbnail   *string  `json:"thumbnail,omitempty" validate:"omitempty,min=1"`
	Code        *string  `json:"code,omitempty" validate:"omitempty,min=1"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

func (p Patch) apply(dst Product) Product {
	id := dst.ID

	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Thumbnail != nil {
		dst.Thumbnail = *p.Thumbnail
	}
	if p.Code != nil {
		dst.Code = *p.Code
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}

	dst.ID = id
	return dst
}

// Ptr returns a pointer to v, for building drafts and patches.
func Ptr[T any](v T) *T { return &v }
