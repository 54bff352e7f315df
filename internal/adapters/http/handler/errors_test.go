package handler_test

import (
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"luckyspot/internal/adapters/http/handler"
	"luckyspot/internal/domain"
)

var _ = DescribeTable("StatusFor",
	func(err error, want int) {
		Expect(handler.StatusFor(err)).To(Equal(want))
	},
	Entry("not found", domain.ErrEntrantNotFound, http.StatusNotFound),
	Entry("bad filter", domain.ErrInvalidFilter, http.StatusBadRequest),
	Entry("bad capacity", domain.ErrInvalidCapacity, http.StatusBadRequest),
	Entry("missing uid", domain.ErrMissingUID, http.StatusBadRequest),
	Entry("invalid state", domain.ErrNotPending, http.StatusConflict),
	Entry("broken lifecycle rule", domain.ErrInvalidRecord, http.StatusConflict),
	Entry("wrapped transient", fmt.Errorf("list all entrants: %w", domain.ErrTransient), http.StatusServiceUnavailable),
	Entry("wrapped conflict", fmt.Errorf("cancel: %w", domain.ErrConflict), http.StatusConflict),
	Entry("transient", domain.ErrTransient, http.StatusServiceUnavailable),
	Entry("unknown", errors.New("boom"), http.StatusInternalServerError),
)
