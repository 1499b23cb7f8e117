package tag

type TagServiceAPI interface {
	List() ([]Tag, error)
}
