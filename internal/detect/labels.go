package detect

// TaxonomyCOCO80 names the 80-class, 0-based COCO label space used by
// YOLO-family models. Class ids produced by every decoder are in this space.
const TaxonomyCOCO80 = "coco80"

// COCO80Labels are the class names indexed by COCO-80 class id.
var COCO80Labels = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}

// coco91IDs lists the 1-based COCO-91 ids (TF object detection models) in
// COCO-80 order, so coco91IDs[i] is the COCO-91 id of COCO-80 class i.
var coco91IDs = []int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25,
	27, 28, 31, 32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 46, 47, 48, 49, 50, 51,
	52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 63, 64, 65, 67, 70, 72, 73, 74, 75, 76, 77,
	78, 79, 80, 81, 82, 84, 85, 86, 87, 88, 89, 90,
}

var coco91To80 = func() map[int]int {
	m := make(map[int]int, len(coco91IDs))
	for i, id := range coco91IDs {
		m[id] = i
	}
	return m
}()

// COCO91To80 translates a TF SSD class id into the COCO-80 space.
// Background (0) and the unused COCO-91 slots report false.
func COCO91To80(id int) (int, bool) {
	v, ok := coco91To80[id]
	return v, ok
}

// LabelFor returns the name for a class id, or "" when names does not cover it.
func LabelFor(names []string, classID int) string {
	if classID < 0 || classID >= len(names) {
		return ""
	}
	return names[classID]
}
