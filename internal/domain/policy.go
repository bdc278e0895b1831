package domain

// Actor субъект проверки прав
type Actor struct {
	AuthorID int64
	Admin    bool
}

// CanModifyArticle администратор или автор материала
func CanModifyArticle(actor Actor, article *Article) bool {
	if article == nil {
		return false
	}
	return actor.Admin || actor.AuthorID == article.AuthorID
}

// CanModifyTag метку можно менять и удалять, только пока на нее никто не ссылается.
// Роль актора здесь не важна: даже администратор не обходит это правило.
func CanModifyTag(_ Actor, tag *Tag, usage int) bool {
	return tag != nil && usage == 0
}
