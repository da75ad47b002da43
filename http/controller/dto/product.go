package dto

// PageQuery binds ?limit=1..50&offset>=0
type PageQuery struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=50"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}
