package http

import (
	"github.com/nakanohidekatsu/pos-terminal/internal/domain"
	"github.com/nakanohidekatsu/pos-terminal/internal/pos"
)

type SetCodeRequestDTO struct {
	Code string `json:"code"`
}

type DecodeRequestDTO struct {
	Code string `json:"code"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ProductResponse struct {
	ProductID   string `json:"product_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	PriceIncTax int64  `json:"price_inc_tax"`
}

type CartLineResponse struct {
	DtlID       int    `json:"dtl_id"`
	ProductID   string `json:"product_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	PriceIncTax int64  `json:"price_inc_tax"`
}

type CartResponse struct {
	Lines       []CartLineResponse `json:"lines"`
	TotalExTax  int64              `json:"total_ex_tax"`
	TotalIncTax int64              `json:"total_inc_tax"`
}

type ReceiptResponse struct {
	TrdID       string `json:"trd_id"`
	TotalExTax  int64  `json:"total_ex_tax"`
	TotalIncTax int64  `json:"total_inc_tax"`
	Lines       int    `json:"lines"`
	CompletedAt string `json:"completed_at"`
}

type StateResponse struct {
	Phase      string           `json:"phase"`
	Code       string           `json:"code"`
	Product    *ProductResponse `json:"product,omitempty"`
	Notice     string           `json:"notice,omitempty"`
	Cart       CartResponse     `json:"cart"`
	Scanning   bool             `json:"scanning"`
	Purchasing bool             `json:"purchasing"`
	Receipt    *ReceiptResponse `json:"receipt,omitempty"`
}

func toStateResponse(v pos.View) StateResponse {
	res := StateResponse{
		Phase:      v.Phase.String(),
		Code:       v.Code,
		Notice:     string(v.Notice),
		Cart:       toCartResponse(v.Cart),
		Scanning:   v.Scanning,
		Purchasing: v.Purchasing,
	}
	if v.Product != nil {
		res.Product = &ProductResponse{
			ProductID:   v.Product.ID,
			Code:        v.Product.Code,
			Name:        v.Product.Name,
			Price:       v.Product.Price,
			PriceIncTax: v.Product.PriceIncTax,
		}
	}
	if v.Receipt != nil {
		res.Receipt = &ReceiptResponse{
			TrdID:       v.Receipt.TrdID,
			TotalExTax:  v.Receipt.TotalExTax,
			TotalIncTax: v.Receipt.TotalIncTax,
			Lines:       v.Receipt.Lines,
			CompletedAt: v.Receipt.CompletedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return res
}

func toCartResponse(c domain.Cart) CartResponse {
	res := CartResponse{
		Lines:       make([]CartLineResponse, 0, len(c.Lines)),
		TotalExTax:  c.TotalExTax,
		TotalIncTax: c.TotalIncTax,
	}
	for _, line := range c.Lines {
		res.Lines = append(res.Lines, CartLineResponse{
			DtlID:       line.Seq,
			ProductID:   line.ProductID,
			Code:        line.Code,
			Name:        line.Name,
			Price:       line.Price,
			PriceIncTax: line.PriceIncTax,
		})
	}
	return res
}
