package repository

import (
	"context"

	"github.com/Bzrkr/raspisanie/internal/model"
)

const employeesCacheKey = "iis:employees"

// EmployeeRepository 教师列表数据访问接口
type EmployeeRepository interface {
	// List 全部教师，保持上游返回顺序
	List(ctx context.Context) ([]model.Teacher, error)
}

type employeeRepo struct {
	src   Source
	cache *cachedFetcher
}

// newEmployeeRepo 创建 EmployeeRepository 实例
func newEmployeeRepo(src Source, cache *cachedFetcher) EmployeeRepository {
	return &employeeRepo{src: src, cache: cache}
}

func (r *employeeRepo) List(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	err := r.cache.fetch(ctx, employeesCacheKey, &teachers, func() (interface{}, error) {
		list, err := r.src.Employees(ctx)
		if err != nil {
			return nil, err
		}
		teachers = list
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return teachers, nil
}
