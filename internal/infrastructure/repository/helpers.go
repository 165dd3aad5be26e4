package repository

import (
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/pkg/pagination"
	"gorm.io/gorm"
)

func filterPagination(filter *domainRepo.CustomerFilter) *pagination.PaginationParams {
	if filter == nil {
		return nil
	}
	return filter.Pagination
}

// aggregateByStatus groups the query by status, summing amountCol and, when
// given, outstandingCol
func aggregateByStatus(query *gorm.DB, amountCol, outstandingCol string) ([]domainRepo.StatusAggregate, error) {
	outstanding := "0"
	if outstandingCol != "" {
		outstanding = "COALESCE(SUM(" + outstandingCol + "), 0)"
	}

	var rows []domainRepo.StatusAggregate
	err := query.
		Select("status, COUNT(*) AS count, COALESCE(SUM(" + amountCol + "), 0) AS total, " + outstanding + " AS outstanding").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	return rows, err
}
