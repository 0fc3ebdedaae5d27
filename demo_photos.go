package photodrift

// demoPhotoURLs seeds the field when no photo list is supplied.
var demoPhotoURLs = []string{
	"https://picsum.photos/id/1015/1200/800",
	"https://picsum.photos/id/1016/1200/800",
	"https://picsum.photos/id/1018/800/1200",
	"https://picsum.photos/id/1025/1200/800",
	"https://picsum.photos/id/1035/800/1200",
	"https://picsum.photos/id/1039/1200/800",
	"https://picsum.photos/id/1043/800/1200",
	"https://picsum.photos/id/1050/1200/800",
	"https://picsum.photos/id/1062/1200/800",
	"https://picsum.photos/id/1074/800/1200",
	"https://picsum.photos/id/110/1200/800",
	"https://picsum.photos/id/119/1200/800",
}
