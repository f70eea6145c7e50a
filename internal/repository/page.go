package repository

// ページング（pageは1始まり）
type PageQuery struct {
	Page  int
	Limit int
}

// Offsetは(page-1)*limit
func (q PageQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}
